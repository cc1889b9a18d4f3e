package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/export"
)

func newAuditCommand(opts *options) *cobra.Command {
	var txnID, since, format, outPath string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			entries, err := auditlog.New(s.dir, opts.actor).Read()
			if err != nil {
				return err
			}
			if txnID != "" {
				entries = auditlog.ForTransaction(entries, txnID)
			}
			if since != "" {
				from, err := parseDate(since)
				if err != nil {
					return err
				}
				entries = auditlog.Since(entries, from)
			}

			t := export.Table{Title: "Audit Log", Columns: []string{"timestamp", "actor", "action", "transaction_id", "commit", "details"}}
			for _, e := range entries {
				t.Rows = append(t.Rows, []string{e.Timestamp.Format(time.RFC3339), e.Actor, e.Action, e.TransactionID, e.CommitHash, e.Details})
			}
			return output(cmd.OutOrStdout(), t, format, outPath)
		},
	}
	cmd.Flags().StringVar(&txnID, "txn", "", "only entries for this transaction")
	cmd.Flags().StringVar(&since, "since", "", "only entries on or after YYYY-MM-DD")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}
