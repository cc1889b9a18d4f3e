package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/model"
)

func newAccountCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(newAccountListCommand(opts), newAccountAddCommand(opts), newAccountRemoveCommand(opts))
	return cmd
}

func newAccountListCommand(opts *options) *cobra.Command {
	var all bool
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			accts := s.accounts.Active()
			if all {
				accts = s.accounts.All()
			}

			t := export.Table{Title: "Chart of Accounts", Columns: []string{"code", "name", "category", "balance", "deleted"}}
			for _, a := range accts {
				t.Rows = append(t.Rows, []string{a.Code, a.Name, string(a.Category), a.Balance.StringFixed(2), strconv.FormatBool(a.Deleted)})
			}
			return output(cmd.OutOrStdout(), t, format, outPath)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include removed accounts")
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}

func newAccountAddCommand(opts *options) *cobra.Command {
	var category, description string

	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add an account to the chart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			acct := model.Account{Code: args[0], Name: args[1], Category: model.Category(category), Description: description}
			if err := s.accounts.Add(acct); err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionAddAccount, Details: fmt.Sprintf("%s %s (%s)", acct.Code, acct.Name, acct.Category)}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s %s\n", acct.Code, acct.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "asset, liability, equity, revenue, or expense (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().StringVar(&description, "description", "", "account description")
	return cmd
}

func newAccountRemoveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <code>",
		Short: "Remove an account; its history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			if role, ok := s.cfg.Accounts.Role(args[0]); ok {
				return fmt.Errorf("account %s is the configured %s account; change accounts.%s in coopbooks.yaml first", args[0], role, role)
			}
			acct, ok := s.accounts.Get(args[0])
			if ok && !acct.Balance.IsZero() {
				return fmt.Errorf("account %s still has a balance of %s", acct.Code, acct.Balance.StringFixed(2))
			}
			if err := s.accounts.Remove(args[0]); err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionRemoveAccount, Details: args[0]}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", args[0])
			return nil
		},
	}
}

func addOutputFlags(cmd *cobra.Command, format, outPath *string) {
	cmd.Flags().StringVar(format, "format", "table", "output format: table, csv, or json")
	cmd.Flags().StringVar(outPath, "out", "", "write to a file instead of stdout")
}
