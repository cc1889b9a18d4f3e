package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/buildinfo"
	"github.com/coopbooks/coopbooks/internal/logging"
)

// options holds the global flags shared by every subcommand.
type options struct {
	booksDir  string
	dsn       string
	logLevel  string
	logFormat string
	actor     string

	log *slog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{log: logging.Discard()}

	rootCmd := &cobra.Command{
		Use:     "coopbooks",
		Short:   "Books for savings and credit cooperatives",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.log = log
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.booksDir, "books", ".", "books directory")
	pf.StringVar(&opts.dsn, "db", "", "database DSN for reports and mirroring (sqlite://path, file:path, postgres://...)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&opts.actor, "actor", defaultActor(), "name recorded against changes")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newAccountCommand(opts),
		newMemberCommand(opts),
		newLoanCommand(opts),
		newTxnCommand(opts),
		newReportCommand(opts),
		newDividendsCommand(opts),
		newReconcileCommand(opts),
		newImportCommand(opts),
		newAuditCommand(opts),
		newDBCommand(opts),
	)

	return rootCmd
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "clerk"
}
