package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/members"
	"github.com/coopbooks/coopbooks/internal/model"
)

func newMemberCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage members",
	}
	cmd.AddCommand(newMemberAddCommand(opts), newMemberListCommand(opts))
	return cmd
}

func newMemberAddCommand(opts *options) *cobra.Command {
	var role, joined, memberID string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			joinedAt, err := parseDate(joined)
			if err != nil {
				return err
			}
			r := model.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			m, err := s.members.Add(model.Member{ID: memberID, Name: args[0], Role: r, JoinedAt: joinedAt, Active: true})
			if err != nil {
				return err
			}
			entry := auditlog.Entry{Action: auditlog.ActionAddMember, Details: fmt.Sprintf("%s %s (%s)", m.ID, m.Name, m.Role)}
			if err := s.finish(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member %s %s\n", m.ID, m.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(model.RoleMember), "member, officer, secretary, treasurer, or admin")
	cmd.Flags().StringVar(&joined, "joined", "", "join date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&memberID, "id", "", "member ID (default next M-NNNN)")
	return cmd
}

func newMemberListCommand(opts *options) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members with their share and savings balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			t := export.Table{Title: "Members", Columns: []string{"member_id", "name", "role", "shares", "savings", "joined", "active"}}
			for _, m := range members.Sorted(s.members.All()) {
				joined := ""
				if !m.JoinedAt.IsZero() {
					joined = m.JoinedAt.Format(dateFormat)
				}
				t.Rows = append(t.Rows, []string{m.ID, m.Name, string(m.Role), m.ShareBalance.StringFixed(2), m.SavingsBalance.StringFixed(2), joined, strconv.FormatBool(m.Active)})
			}
			shares, savings := s.members.Totals()
			t.Rows = append(t.Rows, []string{"", "Total", "", shares.StringFixed(2), savings.StringFixed(2), "", ""})
			return output(cmd.OutOrStdout(), t, format, outPath)
		},
	}
	addOutputFlags(cmd, &format, &outPath)
	return cmd
}
