package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/importer"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

func newImportCommand(opts *options) *cobra.Command {
	var format string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Record batch files waiting in import/",
		Long: "Reads every CSV in the books directory's import/ folder, records its rows, and moves\n" +
			"the file to import/processed/. A file with any bad row is left in place untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := importer.DefaultRegistry()
			parser := reg.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q (have %s)", format, strings.Join(reg.Formats(), ", "))
			}

			s, err := openSession(opts)
			if err != nil {
				return err
			}
			files, err := importer.Scan(s.dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "Nothing to import")
				return nil
			}

			var failed int
			for _, f := range files {
				// Each file starts from the books as the previous file left them.
				s, err := openSession(opts)
				if err != nil {
					return err
				}
				params, err := importer.ParseFile(parser, f.Path)
				if err == nil {
					err = s.check(params)
				}
				if err == nil && !dryRun {
					err = importFile(cmd.Context(), s, f.Name, params)
				}
				if err != nil {
					failed++
					opts.log.Error("import rejected", "file", f.Name, "error", err)
					fmt.Fprintf(out, "%s: rejected: %v\n", f.Name, err)
					continue
				}
				if dryRun {
					fmt.Fprintf(out, "%s: %d transactions OK\n", f.Name, len(params))
					continue
				}
				fmt.Fprintf(out, "%s: recorded %d transactions\n", f.Name, len(params))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files rejected", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "coopbooks", "batch file format")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "check files without recording them")
	return cmd
}

// importFile records one file's rows as a unit: every row is posted and
// written and the file moves to processed/, or nothing is written and the
// file stays in import/.
func importFile(ctx context.Context, s *session, name string, params []transactions.RecordParams) error {
	entries := make([]auditlog.Entry, 0, len(params))
	for i, p := range params {
		txn, eff, err := s.record(p)
		if err != nil {
			s.txns.Discard()
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		entries = append(entries, auditlog.Entry{Action: auditlog.ActionImport, Details: name + ": " + effectDetails(txn, eff), TransactionID: txn.ID})
	}

	// The move happens first so the commit in finish includes it.
	if err := importer.MarkProcessed(s.dir, name); err != nil {
		s.txns.Discard()
		return err
	}
	if err := s.finish(ctx, entries...); err != nil {
		if len(s.txns.Staged()) == len(params) {
			if rerr := importer.Requeue(s.dir, name); rerr != nil {
				s.opts.log.Error("requeueing import", "file", name, "error", rerr)
			}
		}
		return err
	}
	return nil
}
