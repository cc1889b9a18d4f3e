package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

func newLoanCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Manage member loans",
	}
	cmd.AddCommand(
		newLoanAddCommand(opts),
		newLoanListCommand(opts),
		newLoanDisburseCommand(opts),
		newLoanRepayCommand(opts),
		newLoanSplitCommand(opts),
		newLoanScheduleCommand(opts),
	)
	return cmd
}

func newLoanAddCommand(opts *options) *cobra.Command {
	var principal, rate string
	var term int
	var guarantors []string

	cmd := &cobra.Command{
		Use:   "add <member-id>",
		Short: "Register a pending loan application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			amount, err := parseAmount("principal", principal)
			if err != nil {
				return err
			}
			annual, err := parseAmount("rate", rate)
			if err != nil {
				return err
			}

			memberID := args[0]
			if !s.members.Exists(memberID) {
				return fmt.Errorf("unknown member %s", memberID)
			}
			for _, g := range guarantors {
				if g == memberID {
					return errors.New("a borrower cannot guarantee their own loan")
				}
				if !s.members.Exists(g) {
					return fmt.Errorf("unknown guarantor %s", g)
				}
			}

			l, err := s.loans.Add(model.Loan{MemberID: memberID, PrincipalAmount: amount, InterestRate: annual, TermMonths: term, GuarantorIDs: guarantors})
			if err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionAddLoan, Details: fmt.Sprintf("%s for %s: %s at %s%% over %d months", l.ID, memberID, amount.StringFixed(2), annual.String(), term)}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added loan %s for %s (pending)\n", l.ID, memberID)
			return nil
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "amount borrowed (required)")
	cmd.Flags().StringVar(&rate, "rate", "", "annual interest rate in percent (required)")
	cmd.Flags().IntVar(&term, "term", 12, "term in months")
	cmd.Flags().StringSliceVar(&guarantors, "guarantor", nil, "guarantor member ID (repeatable)")
	return cmd
}

func newLoanListCommand(opts *options) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			t := export.Table{Title: "Loans", Columns: []string{"loan_id", "member_id", "principal", "remaining", "rate", "term", "status", "guarantors"}}
			for _, l := range s.loans.All() {
				t.Rows = append(t.Rows, []string{
					l.ID, l.MemberID, l.PrincipalAmount.StringFixed(2), l.RemainingBalance.StringFixed(2),
					l.InterestRate.String(), strconv.Itoa(l.TermMonths), string(l.Status), strings.Join(l.GuarantorIDs, ";"),
				})
			}
			t.Rows = append(t.Rows, []string{"", "Outstanding", "", loans.Outstanding(s.loans.All()).StringFixed(2), "", "", "", ""})
			return output(cmd.OutOrStdout(), t, format, outPath)
		},
	}
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}

func newLoanDisburseCommand(opts *options) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "disburse <loan-id>",
		Short: "Pay out a pending loan from cash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			l, ok := s.loans.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", loans.ErrNotFound, args[0])
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			txn, eff, err := s.record(transactions.RecordParams{
				Date:        when,
				Type:        model.TxnLoanDisbursement,
				Amount:      l.PrincipalAmount,
				MemberID:    l.MemberID,
				LoanID:      l.ID,
				Description: "Loan disbursement " + l.ID,
			})
			if err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionRecord, Details: effectDetails(txn, eff), TransactionID: txn.ID}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disbursed %s to %s as %s\n", l.PrincipalAmount.StringFixed(2), l.MemberID, txn.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "disbursement date YYYY-MM-DD (default today)")
	return cmd
}

func newLoanRepayCommand(opts *options) *cobra.Command {
	var amount, date, receipt string

	cmd := &cobra.Command{
		Use:   "repay <loan-id>",
		Short: "Record a loan repayment and show how it was split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			l, ok := s.loans.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", loans.ErrNotFound, args[0])
			}
			tendered, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			txn, eff, err := s.record(transactions.RecordParams{
				Date:        when,
				Type:        model.TxnLoanRepayment,
				Amount:      tendered,
				MemberID:    l.MemberID,
				LoanID:      l.ID,
				Description: "Loan repayment " + l.ID,
				ReceiptID:   receipt,
			})
			if err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionRecord, Details: effectDetails(txn, eff), TransactionID: txn.ID}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n\n", txn.ID)
			if eff.Split != nil {
				if eff.Split.Overpayment.IsPositive() {
					opts.log.Warn("repayment exceeded balance; credited to savings", "loan", l.ID, "overpayment", eff.Split.Overpayment.StringFixed(2))
				}
				return export.WriteText(cmd.OutOrStdout(), export.RepaymentSplit(*eff.Split))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid (required)")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&receipt, "receipt", "", "receipt ID (default generated)")
	return cmd
}

func newLoanSplitCommand(opts *options) *cobra.Command {
	var amount, format, outPath string

	cmd := &cobra.Command{
		Use:   "split <loan-id>",
		Short: "Preview how a payment would be split without recording it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			tendered, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			split, err := s.loans.PreviewRepayment(args[0], tendered)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), export.RepaymentSplit(split), format, outPath)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to be paid (required)")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}

func newLoanScheduleCommand(opts *options) *cobra.Command {
	var principal, rate, format, outPath string
	var term int

	cmd := &cobra.Command{
		Use:   "schedule [loan-id]",
		Short: "Show a repayment plan for a loan or for given terms",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var l model.Loan
			if len(args) == 1 {
				s, err := openSession(opts)
				if err != nil {
					return err
				}
				var ok bool
				if l, ok = s.loans.Get(args[0]); !ok {
					return fmt.Errorf("%w: %s", loans.ErrNotFound, args[0])
				}
			} else {
				amount, err := parseAmount("principal", principal)
				if err != nil {
					return err
				}
				annual, err := parseAmount("rate", rate)
				if err != nil {
					return err
				}
				l = model.Loan{PrincipalAmount: amount, InterestRate: annual, TermMonths: term}
			}
			if l.TermMonths <= 0 {
				return errors.New("term must be at least one month")
			}
			return output(cmd.OutOrStdout(), export.Schedule(loans.Schedule(l.PrincipalAmount, l.InterestRate, l.TermMonths)), format, outPath)
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "principal when no loan is given")
	cmd.Flags().StringVar(&rate, "rate", "", "annual rate in percent when no loan is given")
	cmd.Flags().IntVar(&term, "term", 12, "term in months when no loan is given")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}
