package posting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/config"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/members"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/reconcile"
	"github.com/coopbooks/coopbooks/internal/reports"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	accts  *accounts.Service
	mems   *members.Service
	loans  *loans.Service
	poster *Poster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		accts: accounts.NewService(accounts.DefaultChart("")),
		mems: members.NewService([]model.Member{
			{ID: "M-0001", Name: "Amina", Role: model.RoleMember, Active: true},
			{ID: "M-0002", Name: "Brian", Role: model.RoleMember, Active: true},
		}),
		loans: loans.NewService(nil),
	}
	_, err := f.loans.Add(model.Loan{MemberID: "M-0001", PrincipalAmount: dec("12000"), InterestRate: dec("12"), TermMonths: 12})
	require.NoError(t, err)
	f.poster = NewPoster(f.accts, f.mems, f.loans, config.Default("Test", "").Accounts)
	return f
}

func txn(typ model.TransactionType, amount string, opts ...func(*model.Transaction)) model.Transaction {
	t := model.Transaction{
		ID:     "TX-2025-01-001",
		Date:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Type:   typ,
		Amount: dec(amount),
	}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func member(id string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.MemberID = id }
}

func loan(id string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.LoanID = id }
}

func category(code string) func(*model.Transaction) {
	return func(t *model.Transaction) { t.Category = code }
}

func (f fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	a, ok := f.accts.Get(code)
	require.True(t, ok, code)
	return a.Balance
}

func TestPost_Deposit(t *testing.T) {
	f := newFixture(t)
	eff, err := f.poster.Post(txn(model.TxnDeposit, "5000", member("M-0001")))
	require.NoError(t, err)

	assert.True(t, f.balance(t, "1010").Equal(dec("5000")))
	m, _ := f.mems.Get("M-0001")
	assert.True(t, m.SavingsBalance.Equal(dec("5000")))
	require.Len(t, eff.Changes, 2)
	assert.Equal(t, "account:1010 5000.00", eff.Changes[0].String())
	assert.Equal(t, "savings:M-0001 5000.00", eff.Changes[1].String())
}

func TestPost_WithdrawalInsufficient(t *testing.T) {
	f := newFixture(t)
	_, err := f.poster.Post(txn(model.TxnDeposit, "100", member("M-0001")))
	require.NoError(t, err)

	_, err = f.poster.Post(txn(model.TxnWithdrawal, "150", member("M-0001")))
	assert.ErrorIs(t, err, members.ErrInsufficientSavings)
	assert.True(t, f.balance(t, "1010").Equal(dec("100")), "cash untouched on failure")

	_, err = f.poster.Post(txn(model.TxnWithdrawal, "40", member("M-0001")))
	require.NoError(t, err)
	m, _ := f.mems.Get("M-0001")
	assert.True(t, m.SavingsBalance.Equal(dec("60")))
	assert.True(t, f.balance(t, "1010").Equal(dec("60")))
}

func TestPost_LoanLifecycle(t *testing.T) {
	f := newFixture(t)
	_, err := f.poster.Post(txn(model.TxnSharePurchase, "15000", member("M-0002")))
	require.NoError(t, err)

	_, err = f.poster.Post(txn(model.TxnLoanRepayment, "100", member("M-0001"), loan("L-0001")))
	assert.ErrorIs(t, err, loans.ErrNotActive, "pending loans take no repayments")

	_, err = f.poster.Post(txn(model.TxnLoanDisbursement, "11000", member("M-0001"), loan("L-0001")))
	assert.ErrorIs(t, err, ErrLoanMismatch)

	_, err = f.poster.Post(txn(model.TxnLoanDisbursement, "12000", member("M-0002"), loan("L-0001")))
	assert.ErrorIs(t, err, ErrLoanMismatch)

	_, err = f.poster.Post(txn(model.TxnLoanDisbursement, "12000", member("M-0001"), loan("L-0001")))
	require.NoError(t, err)
	l, _ := f.loans.Get("L-0001")
	assert.Equal(t, model.LoanActive, l.Status)
	assert.True(t, l.RemainingBalance.Equal(dec("12000")))
	assert.True(t, f.balance(t, "1010").Equal(dec("3000")))

	eff, err := f.poster.Post(txn(model.TxnLoanRepayment, "1000", member("M-0001"), loan("L-0001")))
	require.NoError(t, err)
	require.NotNil(t, eff.Split)
	assert.True(t, eff.Split.Interest.Equal(dec("120")))
	assert.True(t, eff.Split.Principal.Equal(dec("880")))
	assert.True(t, f.balance(t, "4010").Equal(dec("120")))
	assert.True(t, f.balance(t, "1010").Equal(dec("4000")))
	l, _ = f.loans.Get("L-0001")
	assert.True(t, l.RemainingBalance.Equal(dec("11120")))
}

func TestPost_OverpaymentCreditsSavings(t *testing.T) {
	f := newFixture(t)
	_, err := f.loans.Add(model.Loan{MemberID: "M-0002", PrincipalAmount: dec("1000"), InterestRate: dec("12"), TermMonths: 2})
	require.NoError(t, err)
	_, err = f.poster.Post(txn(model.TxnSharePurchase, "1000", member("M-0001")))
	require.NoError(t, err)
	_, err = f.poster.Post(txn(model.TxnLoanDisbursement, "1000", member("M-0002"), loan("L-0002")))
	require.NoError(t, err)

	eff, err := f.poster.Post(txn(model.TxnLoanRepayment, "1500", member("M-0002"), loan("L-0002")))
	require.NoError(t, err)
	assert.True(t, eff.Split.Interest.Equal(dec("10")))
	assert.True(t, eff.Split.Principal.Equal(dec("1000")))
	assert.True(t, eff.Split.Overpayment.Equal(dec("490")))

	m, _ := f.mems.Get("M-0002")
	assert.True(t, m.SavingsBalance.Equal(dec("490")))
	l, _ := f.loans.Get("L-0002")
	assert.Equal(t, model.LoanPaid, l.Status)
}

func TestPost_IncomeExpenseFine(t *testing.T) {
	f := newFixture(t)

	_, err := f.poster.Post(txn(model.TxnIncome, "30"))
	require.NoError(t, err)
	assert.True(t, f.balance(t, "4090").Equal(dec("30")), "falls back to other income")

	_, err = f.poster.Post(txn(model.TxnExpense, "12.50", category("5010")))
	require.NoError(t, err)
	assert.True(t, f.balance(t, "5010").Equal(dec("12.50")))

	_, err = f.poster.Post(txn(model.TxnFine, "5", member("M-0002")))
	require.NoError(t, err)
	assert.True(t, f.balance(t, "4020").Equal(dec("5")))
	assert.True(t, f.balance(t, "1010").Equal(dec("22.50")))

	_, err = f.poster.Post(txn(model.TxnExpense, "1", category("4010")))
	assert.Error(t, err, "expense booked to a revenue account")
	_, err = f.poster.Post(txn(model.TxnIncome, "1", category("9999")))
	assert.ErrorIs(t, err, accounts.ErrNotFound)
	assert.True(t, f.balance(t, "1010").Equal(dec("22.50")))
}

func TestPost_Rejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.poster.Post(txn(model.TxnDeposit, "0", member("M-0001")))
	assert.Error(t, err)
	_, err = f.poster.Post(txn(model.TxnDeposit, "10", member("M-0404")))
	assert.ErrorIs(t, err, members.ErrNotFound)
	_, err = f.poster.Post(txn(model.TransactionType("GIFT"), "10"))
	assert.Error(t, err)
	assert.True(t, f.balance(t, "1010").IsZero())
}

func TestPost_KeepsBooksBalanced(t *testing.T) {
	f := newFixture(t)
	steps := []model.Transaction{
		txn(model.TxnDeposit, "5000", member("M-0001")),
		txn(model.TxnSharePurchase, "10000", member("M-0002")),
		txn(model.TxnLoanDisbursement, "12000", member("M-0001"), loan("L-0001")),
		txn(model.TxnLoanRepayment, "1000", member("M-0001"), loan("L-0001")),
		txn(model.TxnExpense, "50", category("5020")),
		txn(model.TxnFine, "20", member("M-0001")),
		txn(model.TxnWithdrawal, "700", member("M-0001")),
	}
	for _, s := range steps {
		_, err := f.poster.Post(s)
		require.NoError(t, err, s.Type)
	}

	r := reports.BalanceSheet(f.accts.All(), f.mems.All(), f.loans.All(), reconcile.Exact)
	assert.True(t, r.TotalAssets.Equal(dec("14390")), r.TotalAssets.String())
	assert.True(t, r.NetProfit.Equal(dec("90")))
	assert.True(t, r.Variance.IsZero(), r.Variance.String())
	assert.True(t, r.IsBalanced)

	tb := reconcile.TrialBalance(f.accts.All(), f.mems.All(), f.loans.All(), reconcile.Exact)
	assert.True(t, tb.Balanced)
}
