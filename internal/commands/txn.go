package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

func newTxnCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Record and list transactions",
	}
	cmd.AddCommand(newTxnRecordCommand(opts), newTxnListCommand(opts))
	return cmd
}

func newTxnRecordCommand(opts *options) *cobra.Command {
	var typ, amount, date, member, loan, category, description, receipt string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a transaction and post it to the ledgers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			amt, err := parseAmount("amount", amount)
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			txn, eff, err := s.record(transactions.RecordParams{
				Date:        when,
				Type:        model.TransactionType(strings.ToUpper(typ)),
				Category:    category,
				Amount:      amt,
				MemberID:    member,
				LoanID:      loan,
				Description: description,
				ReceiptID:   receipt,
			})
			if err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionRecord, Details: effectDetails(txn, eff), TransactionID: txn.ID}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded %s (receipt %s)\n", txn.ID, txn.ReceiptID)
			for _, c := range eff.Changes {
				fmt.Fprintf(out, "  %s\n", c)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&typ, "type", "", "DEPOSIT, WITHDRAWAL, SHARE_PURCHASE, LOAN_DISBURSEMENT, LOAN_REPAYMENT, INCOME, EXPENSE, or FINE (required)")
	_ = cmd.MarkFlagRequired("type")
	f.StringVar(&amount, "amount", "", "amount, positive with at most two decimals (required)")
	f.StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	f.StringVar(&member, "member", "", "member ID")
	f.StringVar(&loan, "loan", "", "loan ID")
	f.StringVar(&category, "category", "", "revenue or expense account code")
	f.StringVar(&description, "description", "", "free text")
	f.StringVar(&receipt, "receipt", "", "receipt ID (default generated)")
	return cmd
}

func newTxnListCommand(opts *options) *cobra.Command {
	var month, member, typ, format, outPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			book, err := s.book(cmd.Context())
			if err != nil {
				return err
			}

			txns := book.Transactions
			if month != "" {
				from, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("parsing --month %q: %w", month, err)
				}
				txns = transactions.Between(txns, from, from.AddDate(0, 1, -1))
			}
			if member != "" {
				txns = transactions.ByMember(txns, member)
			}
			if typ != "" {
				txns = transactions.ByType(txns, model.TransactionType(strings.ToUpper(typ)))
			}

			t := export.Table{Title: "Transactions", Columns: []string{"id", "date", "type", "amount", "member", "loan", "category", "description", "receipt"}}
			for _, txn := range txns {
				t.Rows = append(t.Rows, []string{
					txn.ID, txn.Date.Format(dateFormat), string(txn.Type), txn.Amount.StringFixed(2),
					txn.MemberID, txn.LoanID, txn.Category, txn.Description, txn.ReceiptID,
				})
			}
			t.Notes = []string{fmt.Sprintf("%d transactions, total %s", len(txns), transactions.Sum(txns).StringFixed(2))}
			return output(cmd.OutOrStdout(), t, format, outPath)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "only YYYY-MM")
	cmd.Flags().StringVar(&member, "member", "", "only this member")
	cmd.Flags().StringVar(&typ, "type", "", "only this transaction type")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}
