package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/store"
)

func newDBCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Copy the books between the directory and a database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Replace the database contents with the books directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openSession(opts)
				if err != nil {
					return err
				}
				dsn := s.dsn()
				if dsn == "" {
					return errors.New("no database configured (use --db or database.url)")
				}
				if err := mirror(cmd.Context(), store.NewDirSource(s.dir), dsn); err != nil {
					return err
				}
				entry := auditlog.Entry{Action: auditlog.ActionPush, Details: "books directory copied to database"}
				if err := auditlog.New(s.dir, opts.actor).Append(entry); err != nil {
					return err
				}
				opts.log.Info("pushed books to database")
				fmt.Fprintln(cmd.OutOrStdout(), "Pushed books to database")
				return nil
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Replace the books directory ledgers with the database contents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openSession(opts)
				if err != nil {
					return err
				}
				dsn := s.dsn()
				if dsn == "" {
					return errors.New("no database configured (use --db or database.url)")
				}
				db, err := store.OpenSQL(cmd.Context(), dsn)
				if err != nil {
					return err
				}
				defer db.Close()
				book, err := db.Load(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.NewDirSource(s.dir).Save(cmd.Context(), book); err != nil {
					return err
				}
				summary := fmt.Sprintf("%d accounts, %d members, %d loans, %d transactions",
					len(book.Accounts), len(book.Members), len(book.Loans), len(book.Transactions))
				s.adopt(book)
				if err := s.finish(cmd.Context(), auditlog.Entry{Action: auditlog.ActionPull, Details: summary}); err != nil {
					return err
				}
				opts.log.Info("pulled books from database", "transactions", len(book.Transactions))
				fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s\n", summary)
				return nil
			},
		},
	)
	return cmd
}
