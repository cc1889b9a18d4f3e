package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/reconcile"
)

func newReconcileCommand(opts *options) *cobra.Command {
	var counts []string
	var format, outPath string

	cmd := &cobra.Command{
		Use:     "reconcile",
		Short:   "Compare a physical cash count with the books",
		Example: "  coopbooks reconcile --count 1000=12 --count 500=3 --count 50=7",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := reconcile.ParseCounts(counts)
			if err != nil {
				return err
			}
			s, book, err := loadForReport(cmd.Context(), opts)
			if err != nil {
				return err
			}

			res := reconcile.Check(parsed, reconcile.SystemNetCash(book.Transactions), reconcile.NewTolerance(s.cfg.Tolerance.CashCount))
			if !res.Balanced {
				opts.log.Warn("cash count does not match books", "physical", res.PhysicalTotal.StringFixed(2), "system", res.SystemNetCash.StringFixed(2), "variance", res.Variance.StringFixed(2))
			}

			entry := auditlog.Entry{
				Action:  auditlog.ActionReconcile,
				Details: fmt.Sprintf("physical %s, system %s, variance %s", res.PhysicalTotal.StringFixed(2), res.SystemNetCash.StringFixed(2), res.Variance.StringFixed(2)),
			}
			if err := auditlog.New(s.dir, opts.actor).Append(entry); err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), export.CashCount(res), format, outPath)
		},
	}
	cmd.Flags().StringArrayVar(&counts, "count", nil, "DENOMINATION=COUNT, repeatable")
	_ = cmd.MarkFlagRequired("count")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}
