package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/config"
	"github.com/coopbooks/coopbooks/internal/gitops"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/members"
)

func newInitCommand(opts *options) *cobra.Command {
	var name string
	var chart string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a new books directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), opts, absDir, name, chart, noGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "cooperative name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&chart, "chart", "savings_cooperative", "starting chart of accounts")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not track the books with git")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, opts *options, dir, name, chart string, noGit bool) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already contains %s", dir, config.FileName)
	}

	dirs := []string{
		"accounts",
		"members",
		"loans",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	useGit := !noGit && gitops.Available()
	cfg := config.Default(name, chart)
	cfg.Git.AutoCommit = useGit
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := accounts.NewService(accounts.DefaultChart(chart)).Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := members.NewService(nil).Save(dir); err != nil {
		return fmt.Errorf("writing members: %w", err)
	}
	if err := loans.NewService(nil).Save(dir); err != nil {
		return fmt.Errorf("writing loans: %w", err)
	}

	// Local databases and secrets stay out of version control.
	gitignore := "*.db\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	var hash string
	if useGit {
		repo := gitops.Open(dir, gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
		if err := repo.Init(ctx); err != nil {
			return err
		}
		var err error
		hash, err = repo.CommitAll(ctx, "init: Initialize "+name)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
	}

	entry := auditlog.Entry{Action: auditlog.ActionInit, Details: fmt.Sprintf("books created for %s (%s chart)", name, chart), CommitHash: hash}
	if err := auditlog.New(dir, opts.actor).Append(entry); err != nil {
		return err
	}
	opts.log.Info("initialized books", "dir", dir, "git", useGit, "commit", hash)

	if hash != "" {
		fmt.Fprintf(out, "Initialized books for %s at %s (%s)\n", name, dir, hash)
	} else {
		fmt.Fprintf(out, "Initialized books for %s at %s\n", name, dir)
	}
	return nil
}
