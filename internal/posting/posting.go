// Package posting applies recorded transactions to account, member, and loan
// balances.
package posting

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/config"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/members"
	"github.com/coopbooks/coopbooks/internal/model"
)

// ErrLoanMismatch is returned when a loan transaction doesn't fit the loan it names.
var ErrLoanMismatch = errors.New("transaction does not match loan")

// Change is one balance movement caused by a posting.
type Change struct {
	Target string // "account:1010", "savings:M-0001", "shares:M-0001", "loan:L-0001"
	Delta  decimal.Decimal
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Target, c.Delta.StringFixed(2))
}

// Effect describes everything a posting changed.
type Effect struct {
	Transaction model.Transaction
	Changes     []Change
	Split       *loans.RepaymentSplit // set for LOAN_REPAYMENT
}

// Poster applies transactions to the in-memory services.
type Poster struct {
	accounts *accounts.Service
	members  *members.Service
	loans    *loans.Service
	codes    config.AccountsConfig
}

// NewPoster creates a Poster over the given services and posting map.
func NewPoster(accts *accounts.Service, mems *members.Service, lns *loans.Service, codes config.AccountsConfig) *Poster {
	return &Poster{accounts: accts, members: mems, loans: lns, codes: codes}
}

type op struct {
	kind   string
	key    string
	amount decimal.Decimal
}

// Post applies txn. Every precondition is checked before any balance
// changes, so a failed Post leaves the services untouched.
func (p *Poster) Post(txn model.Transaction) (Effect, error) {
	if !txn.Amount.IsPositive() {
		return Effect{}, fmt.Errorf("posting %s: amount must be positive", ref(txn))
	}

	eff := Effect{Transaction: txn}
	cash := p.codes.Cash
	var ops []op

	switch txn.Type {
	case model.TxnDeposit:
		ops = []op{{"account", cash, txn.Amount}, {"savings", txn.MemberID, txn.Amount}}

	case model.TxnWithdrawal:
		m, ok := p.members.Get(txn.MemberID)
		if !ok {
			return Effect{}, fmt.Errorf("posting %s: %w: %s", ref(txn), members.ErrNotFound, txn.MemberID)
		}
		if m.SavingsBalance.LessThan(txn.Amount) {
			return Effect{}, fmt.Errorf("posting %s: %w: %s has %s", ref(txn), members.ErrInsufficientSavings, m.ID, m.SavingsBalance.StringFixed(2))
		}
		ops = []op{{"account", cash, txn.Amount.Neg()}, {"savings", txn.MemberID, txn.Amount.Neg()}}

	case model.TxnSharePurchase:
		ops = []op{{"account", cash, txn.Amount}, {"shares", txn.MemberID, txn.Amount}}

	case model.TxnLoanDisbursement:
		l, err := p.memberLoan(txn)
		if err != nil {
			return Effect{}, err
		}
		if l.Status != model.LoanPending {
			return Effect{}, fmt.Errorf("posting %s: loan %s is %s: %w", ref(txn), l.ID, l.Status, loans.ErrNotActive)
		}
		if !l.PrincipalAmount.Equal(txn.Amount) {
			return Effect{}, fmt.Errorf("posting %s: %w: disbursed %s but principal is %s", ref(txn), ErrLoanMismatch, txn.Amount.StringFixed(2), l.PrincipalAmount.StringFixed(2))
		}
		ops = []op{{"account", cash, txn.Amount.Neg()}, {"disburse", l.ID, txn.Amount}}

	case model.TxnLoanRepayment:
		l, err := p.memberLoan(txn)
		if err != nil {
			return Effect{}, err
		}
		if l.Status != model.LoanActive && l.Status != model.LoanDefaulted {
			return Effect{}, fmt.Errorf("posting %s: loan %s is %s: %w", ref(txn), l.ID, l.Status, loans.ErrNotActive)
		}
		split := loans.Split(l.RemainingBalance, l.InterestRate, txn.Amount)
		eff.Split = &split
		ops = []op{{"account", cash, txn.Amount}, {"repay", l.ID, txn.Amount}}
		if split.Interest.IsPositive() {
			ops = append(ops, op{"account", p.codes.InterestIncome, split.Interest})
		}
		if split.Overpayment.IsPositive() {
			ops = append(ops, op{"savings", txn.MemberID, split.Overpayment})
		}

	case model.TxnIncome:
		code, err := p.categoryAccount(txn, p.codes.OtherIncome, model.CategoryRevenue)
		if err != nil {
			return Effect{}, err
		}
		ops = []op{{"account", cash, txn.Amount}, {"account", code, txn.Amount}}

	case model.TxnExpense:
		code, err := p.categoryAccount(txn, p.codes.OtherExpense, model.CategoryExpense)
		if err != nil {
			return Effect{}, err
		}
		ops = []op{{"account", cash, txn.Amount.Neg()}, {"account", code, txn.Amount}}

	case model.TxnFine:
		ops = []op{{"account", cash, txn.Amount}, {"account", p.codes.FineIncome, txn.Amount}}

	default:
		return Effect{}, fmt.Errorf("posting %s: unknown transaction type %q", ref(txn), txn.Type)
	}

	if err := p.check(txn, ops); err != nil {
		return Effect{}, err
	}
	for _, o := range ops {
		c, err := p.apply(o, txn)
		if err != nil {
			return Effect{}, fmt.Errorf("posting %s: %w", ref(txn), err)
		}
		eff.Changes = append(eff.Changes, c)
	}
	return eff, nil
}

func (p *Poster) memberLoan(txn model.Transaction) (model.Loan, error) {
	l, ok := p.loans.Get(txn.LoanID)
	if !ok {
		return model.Loan{}, fmt.Errorf("posting %s: %w: %s", ref(txn), loans.ErrNotFound, txn.LoanID)
	}
	if l.MemberID != txn.MemberID {
		return model.Loan{}, fmt.Errorf("posting %s: %w: %s belongs to %s", ref(txn), ErrLoanMismatch, l.ID, l.MemberID)
	}
	return l, nil
}

func (p *Poster) categoryAccount(txn model.Transaction, fallback string, want model.Category) (string, error) {
	code := txn.Category
	if code == "" {
		code = fallback
	}
	acct, ok := p.accounts.Get(code)
	if !ok {
		return "", fmt.Errorf("posting %s: %w: %s", ref(txn), accounts.ErrNotFound, code)
	}
	if acct.Category != want {
		return "", fmt.Errorf("posting %s: account %s is %s, want %s", ref(txn), code, acct.Category, want)
	}
	return code, nil
}

func (p *Poster) check(txn model.Transaction, ops []op) error {
	for _, o := range ops {
		switch o.kind {
		case "account":
			if !p.accounts.Exists(o.key) {
				return fmt.Errorf("posting %s: %w: %s", ref(txn), accounts.ErrNotFound, o.key)
			}
		case "savings", "shares":
			if !p.members.Exists(o.key) {
				return fmt.Errorf("posting %s: %w: %s", ref(txn), members.ErrNotFound, o.key)
			}
		}
	}
	return nil
}

func (p *Poster) apply(o op, txn model.Transaction) (Change, error) {
	switch o.kind {
	case "account":
		if _, err := p.accounts.Adjust(o.key, o.amount); err != nil {
			return Change{}, err
		}
		return Change{Target: "account:" + o.key, Delta: o.amount}, nil
	case "savings":
		if _, err := p.members.AdjustSavings(o.key, o.amount); err != nil {
			return Change{}, err
		}
		return Change{Target: "savings:" + o.key, Delta: o.amount}, nil
	case "shares":
		if _, err := p.members.AdjustShares(o.key, o.amount); err != nil {
			return Change{}, err
		}
		return Change{Target: "shares:" + o.key, Delta: o.amount}, nil
	case "disburse":
		if _, err := p.loans.Disburse(o.key, txn.Date); err != nil {
			return Change{}, err
		}
		return Change{Target: "loan:" + o.key, Delta: o.amount}, nil
	case "repay":
		split, err := p.loans.ApplyRepayment(o.key, o.amount)
		if err != nil {
			return Change{}, err
		}
		return Change{Target: "loan:" + o.key, Delta: split.Principal.Neg()}, nil
	}
	return Change{}, fmt.Errorf("unknown posting op %q", o.kind)
}

func ref(txn model.Transaction) string {
	if txn.ID != "" {
		return txn.ID
	}
	return string(txn.Type)
}
