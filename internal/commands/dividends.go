package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/dividend"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/reconcile"
	"github.com/coopbooks/coopbooks/internal/reports"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

func newDividendsCommand(opts *options) *cobra.Command {
	var rate, avgReturn, interestShare, format, outPath string
	var year int

	cmd := &cobra.Command{
		Use:   "dividends",
		Short: "Compute share dividends and patronage refunds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, book, err := loadForReport(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rates := dividend.Rates{
				DividendRate:  s.cfg.Dividend.Rate,
				AvgReturnRate: s.cfg.Dividend.AvgReturnRate,
				InterestShare: s.cfg.Dividend.InterestShare,
			}
			if rate != "" {
				if rates.DividendRate, err = parseAmount("rate", rate); err != nil {
					return err
				}
			}
			if avgReturn != "" {
				if rates.AvgReturnRate, err = parseAmount("avg-return", avgReturn); err != nil {
					return err
				}
			}
			if interestShare != "" {
				if rates.InterestShare, err = parseAmount("interest-share", interestShare); err != nil {
					return err
				}
			}

			txns := book.Transactions
			if year != 0 {
				from, to, err := s.cfg.Fiscal.Period(year)
				if err != nil {
					return err
				}
				txns = transactions.Between(txns, from, to)
			}

			sheet := reports.BalanceSheet(book.Accounts, book.Members, book.Loans, reconcile.NewTolerance(s.cfg.Tolerance.BalanceSheet))
			d := dividend.Calculate(book.Members, txns, rates, sheet.NetProfit)
			if d.ExceedsProfit {
				opts.log.Warn("distribution exceeds net profit", "total", d.TotalDistribution.StringFixed(2), "net_profit", d.NetProfit.StringFixed(2), "payout_ratio", d.PayoutRatio.String())
			}

			entry := auditlog.Entry{
				Action:  auditlog.ActionDividends,
				Details: fmt.Sprintf("dividend %s%%, refund %s%%: total %s of net profit %s", rates.DividendRate.String(), rates.AvgReturnRate.String(), d.TotalDistribution.StringFixed(2), d.NetProfit.StringFixed(2)),
			}
			if err := auditlog.New(s.dir, opts.actor).Append(entry); err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), export.Dividends(d), format, outPath)
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "dividend rate on shares in percent (default from config)")
	cmd.Flags().StringVar(&avgReturn, "avg-return", "", "patronage refund rate on interest paid in percent (default from config)")
	cmd.Flags().StringVar(&interestShare, "interest-share", "", "fraction of each repayment counted as interest (default from config)")
	cmd.Flags().IntVar(&year, "year", 0, "count repayments in this fiscal year only (default all)")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}
