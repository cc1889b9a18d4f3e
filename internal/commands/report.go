package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/reconcile"
	"github.com/coopbooks/coopbooks/internal/reports"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

func newReportCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements",
	}
	cmd.AddCommand(
		newReportSubcommand(opts, "balance-sheet", "Statement of financial position", balanceSheetTable, false),
		newReportSubcommand(opts, "income", "Revenue and expenses", incomeTable, true),
		newReportSubcommand(opts, "trial-balance", "Debits against credits for every ledger", trialBalanceTable, false),
	)
	return cmd
}

// reportFunc builds a report table. year is 0 unless the report is periodic.
type reportFunc func(s *session, book *model.Book, year int) (export.Table, error)

// newReportSubcommand registers --year only for periodic reports; balance
// sheets and trial balances are read from current ledger balances.
func newReportSubcommand(opts *options, use, short string, build reportFunc, periodic bool) *cobra.Command {
	var format, outPath string
	var year int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, book, err := loadForReport(cmd.Context(), opts)
			if err != nil {
				return err
			}
			t, err := build(s, book, year)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), t, format, outPath)
		},
	}
	if periodic {
		cmd.Flags().IntVar(&year, "year", 0, "fiscal year for transaction summaries (default all)")
	}
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}

func loadForReport(ctx context.Context, opts *options) (*session, *model.Book, error) {
	s, err := openSession(opts)
	if err != nil {
		return nil, nil, err
	}
	book, err := s.book(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, book, nil
}

func balanceSheetTable(s *session, book *model.Book, _ int) (export.Table, error) {
	r := reports.BalanceSheet(book.Accounts, book.Members, book.Loans, reconcile.NewTolerance(s.cfg.Tolerance.BalanceSheet))
	if !r.IsBalanced {
		s.opts.log.Warn("balance sheet out of balance", "variance", r.Variance.StringFixed(2))
	}
	return export.BalanceSheet(r), nil
}

func incomeTable(s *session, book *model.Book, year int) (export.Table, error) {
	txns := book.Transactions
	if year != 0 {
		from, to, err := s.cfg.Fiscal.Period(year)
		if err != nil {
			return export.Table{}, err
		}
		txns = transactions.Between(txns, from, to)
	}
	return export.IncomeStatement(reports.IncomeStatement(book.Accounts, txns)), nil
}

func trialBalanceTable(s *session, book *model.Book, _ int) (export.Table, error) {
	r := reconcile.TrialBalance(book.Accounts, book.Members, book.Loans, reconcile.NewTolerance(s.cfg.Tolerance.BalanceSheet))
	if !r.Balanced {
		s.opts.log.Warn("trial balance out of balance", "difference", r.Difference.StringFixed(2))
	}
	return export.TrialBalance(r), nil
}
