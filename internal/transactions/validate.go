package transactions

import (
	"fmt"

	"github.com/coopbooks/coopbooks/internal/id"
	"github.com/coopbooks/coopbooks/internal/model"
)

// Rule identifies which check a ValidationError failed.
type Rule string

const (
	RuleAmount   Rule = "amount"
	RuleType     Rule = "type"
	RuleMember   Rule = "member"
	RuleLoan     Rule = "loan"
	RulePeriod   Rule = "period"
	RuleID       Rule = "id"
	RuleCents    Rule = "cents"
	RuleCategory Rule = "category"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule          Rule
	TransactionID string
	Description   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.TransactionID, e.Description)
}

// MemberChecker tests whether a member ID exists.
type MemberChecker interface {
	Exists(memberID string) bool
}

// AccountChecker tests whether an account code exists.
type AccountChecker interface {
	Exists(code string) bool
}

// Checkers bundles the lookups validation needs. Nil checkers skip their rule.
type Checkers struct {
	Members  MemberChecker
	Accounts AccountChecker
}

// Validate checks a month's transactions, returning every violation found.
func Validate(txns []model.Transaction, chk Checkers, year, month int) []ValidationError {
	var errs []ValidationError
	seen := make(map[int]bool)

	for _, txn := range txns {
		add := func(rule Rule, format string, args ...any) {
			errs = append(errs, ValidationError{Rule: rule, TransactionID: txn.ID, Description: fmt.Sprintf(format, args...)})
		}

		if !txn.Type.Valid() {
			add(RuleType, "unknown transaction type %q", txn.Type)
		}

		if !txn.Amount.IsPositive() {
			add(RuleAmount, "amount %s must be positive", txn.Amount)
		} else if !txn.Amount.Equal(txn.Amount.Round(2)) {
			add(RuleCents, "amount %s has more than 2 decimal places", txn.Amount)
		}

		if txn.Type.MemberBound() && txn.MemberID == "" {
			add(RuleMember, "%s requires a member", txn.Type)
		}
		if txn.MemberID != "" && chk.Members != nil && !chk.Members.Exists(txn.MemberID) {
			add(RuleMember, "unknown member %s", txn.MemberID)
		}

		if (txn.Type == model.TxnLoanRepayment || txn.Type == model.TxnLoanDisbursement) && txn.LoanID == "" {
			add(RuleLoan, "%s requires a loan", txn.Type)
		}

		if txn.Category != "" && chk.Accounts != nil && !chk.Accounts.Exists(txn.Category) {
			add(RuleCategory, "unknown account %s", txn.Category)
		}

		if txn.Date.Year() != year || int(txn.Date.Month()) != month {
			add(RulePeriod, "date %s not in %04d-%02d", txn.Date.Format(dateFormat), year, month)
		}

		y, m, seq, err := id.ParseTxnID(txn.ID)
		switch {
		case err != nil:
			add(RuleID, "invalid transaction ID: %v", err)
		case y != year || m != month:
			add(RuleID, "ID belongs to %04d-%02d", y, m)
		case seen[seq]:
			add(RuleID, "duplicate sequence %d", seq)
		default:
			seen[seq] = true
		}
	}
	return errs
}
