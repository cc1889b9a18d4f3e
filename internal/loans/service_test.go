package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/model"
)

func activeLoan(t *testing.T, svc *Service, principal string) model.Loan {
	t.Helper()
	l, err := svc.Add(model.Loan{MemberID: "M-0001", PrincipalAmount: dec(principal), InterestRate: dec("12"), TermMonths: 12})
	require.NoError(t, err)
	l, err = svc.Disburse(l.ID, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return l
}

func TestAdd(t *testing.T) {
	svc := NewService(nil)
	l, err := svc.Add(model.Loan{MemberID: "M-0001", PrincipalAmount: dec("5000"), InterestRate: dec("12"), TermMonths: 6, GuarantorIDs: []string{"M-0002"}})
	require.NoError(t, err)
	assert.Equal(t, "L-0001", l.ID)
	assert.Equal(t, model.LoanPending, l.Status)
	assert.True(t, l.RemainingBalance.IsZero(), "nothing is owed before disbursement")

	l2, err := svc.Add(model.Loan{MemberID: "M-0002", PrincipalAmount: dec("100"), InterestRate: dec("12"), TermMonths: 1})
	require.NoError(t, err)
	assert.Equal(t, "L-0002", l2.ID)
}

func TestAdd_Validation(t *testing.T) {
	svc := NewService(nil)
	bad := []model.Loan{
		{PrincipalAmount: dec("100"), InterestRate: dec("12"), TermMonths: 1},
		{MemberID: "M-0001", PrincipalAmount: dec("0"), InterestRate: dec("12"), TermMonths: 1},
		{MemberID: "M-0001", PrincipalAmount: dec("100"), InterestRate: dec("-1"), TermMonths: 1},
		{MemberID: "M-0001", PrincipalAmount: dec("100"), InterestRate: dec("12"), TermMonths: 0},
	}
	for i, l := range bad {
		_, err := svc.Add(l)
		assert.Error(t, err, "case %d", i)
	}
}

func TestDisburse(t *testing.T) {
	svc := NewService(nil)
	l := activeLoan(t, svc, "1000")
	assert.Equal(t, model.LoanActive, l.Status)
	assertDec(t, "1000", l.RemainingBalance, "remaining")
	assert.Equal(t, 5, l.DisbursedAt.Day())

	_, err := svc.Disburse(l.ID, time.Now())
	assert.Error(t, err, "cannot disburse twice")

	_, err = svc.Disburse("L-9999", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyRepayment(t *testing.T) {
	svc := NewService(nil)
	l := activeLoan(t, svc, "10000")

	split, err := svc.ApplyRepayment(l.ID, dec("1000"))
	require.NoError(t, err)
	assertDec(t, "900", split.Principal, "principal")

	got, _ := svc.Get(l.ID)
	assertDec(t, "9100", got.RemainingBalance, "remaining")
	assert.Equal(t, model.LoanActive, got.Status)
}

func TestApplyRepayment_PaysOff(t *testing.T) {
	svc := NewService(nil)
	l := activeLoan(t, svc, "500")

	split, err := svc.ApplyRepayment(l.ID, dec("700"))
	require.NoError(t, err)
	assertDec(t, "195", split.Overpayment, "overpayment")

	got, _ := svc.Get(l.ID)
	assert.True(t, got.RemainingBalance.IsZero())
	assert.Equal(t, model.LoanPaid, got.Status)

	_, err = svc.ApplyRepayment(l.ID, dec("10"))
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestApplyRepayment_Pending(t *testing.T) {
	svc := NewService(nil)
	l, err := svc.Add(model.Loan{MemberID: "M-0001", PrincipalAmount: dec("500"), InterestRate: dec("12"), TermMonths: 3})
	require.NoError(t, err)

	_, err = svc.ApplyRepayment(l.ID, dec("10"))
	assert.ErrorIs(t, err, ErrNotActive)

	_, err = svc.ApplyRepayment("L-0404", dec("10"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreviewRepayment_DoesNotMutate(t *testing.T) {
	svc := NewService(nil)
	l := activeLoan(t, svc, "10000")

	split, err := svc.PreviewRepayment(l.ID, dec("1000"))
	require.NoError(t, err)
	assertDec(t, "9100", split.BalanceAfter, "balance after")

	got, _ := svc.Get(l.ID)
	assertDec(t, "10000", got.RemainingBalance, "remaining")
}

func TestOutstanding(t *testing.T) {
	ls := []model.Loan{{RemainingBalance: dec("100.50")}, {RemainingBalance: dec("899.50")}}
	assertDec(t, "1000", Outstanding(ls), "outstanding")
	assert.True(t, Outstanding(nil).IsZero())
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil)
	l, err := svc.Add(model.Loan{MemberID: "M-0001", PrincipalAmount: dec("5000"), InterestRate: dec("12.5"), TermMonths: 6, GuarantorIDs: []string{"M-0002", "M-0003"}})
	require.NoError(t, err)
	_, err = svc.Disburse(l.ID, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, svc.Save(dir))

	got, err := Load(dir)
	require.NoError(t, err)
	loaded, ok := got.Get(l.ID)
	require.True(t, ok)
	assert.Equal(t, "M-0001", loaded.MemberID)
	assertDec(t, "5000", loaded.PrincipalAmount, "principal")
	assertDec(t, "12.5", loaded.InterestRate, "rate")
	assert.Equal(t, 6, loaded.TermMonths)
	assert.Equal(t, model.LoanActive, loaded.Status)
	assert.Equal(t, []string{"M-0002", "M-0003"}, loaded.GuarantorIDs)
	assert.Equal(t, 2, int(loaded.DisbursedAt.Month()))
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	svc, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, svc.All())
}
