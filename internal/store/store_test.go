package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func sampleBook() *model.Book {
	accts := accounts.DefaultChart("")
	accts[0].Balance = dec("2500.50")
	return &model.Book{
		Accounts: accts,
		Members: []model.Member{
			{ID: "M-0001", Name: "Amina", Role: model.RoleTreasurer, ShareBalance: dec("1000"), SavingsBalance: dec("250.50"), JoinedAt: date(2024, 3, 1), Active: true},
			{ID: "M-0002", Name: "Brian", Role: model.RoleMember, ShareBalance: dec("500"), Active: false},
		},
		Loans: []model.Loan{
			{ID: "L-0001", MemberID: "M-0001", PrincipalAmount: dec("1200"), RemainingBalance: dec("750"), InterestRate: dec("12"), TermMonths: 12, Status: model.LoanActive, GuarantorIDs: []string{"M-0002"}, DisbursedAt: date(2025, 1, 5)},
		},
		Transactions: []model.Transaction{
			{ID: "TX-2025-01-001", Date: date(2025, 1, 5), Type: model.TxnLoanDisbursement, Amount: dec("1200"), MemberID: "M-0001", LoanID: "L-0001", ReceiptID: "RC-1"},
			{ID: "TX-2025-01-002", Date: date(2025, 1, 9), Type: model.TxnDeposit, Amount: dec("250.50"), MemberID: "M-0001", Description: "monthly, savings", ReceiptID: "RC-2"},
			{ID: "TX-2025-02-001", Date: date(2025, 2, 3), Type: model.TxnExpense, Category: "5010", Amount: dec("12.75"), ReceiptID: "RC-3", RecordedBy: "treasurer"},
		},
	}
}

func assertSameBook(t *testing.T, want, got *model.Book) {
	t.Helper()
	require.Len(t, got.Accounts, len(want.Accounts))
	require.Len(t, got.Members, len(want.Members))
	require.Len(t, got.Loans, len(want.Loans))
	require.Len(t, got.Transactions, len(want.Transactions))

	byCode := make(map[string]model.Account)
	for _, a := range got.Accounts {
		byCode[a.Code] = a
	}
	for _, a := range want.Accounts {
		g, ok := byCode[a.Code]
		require.True(t, ok, a.Code)
		assert.Equal(t, a.Name, g.Name)
		assert.Equal(t, a.Category, g.Category)
		assert.True(t, a.Balance.Equal(g.Balance), "%s balance %s != %s", a.Code, a.Balance, g.Balance)
	}

	for i, m := range want.Members {
		g := got.Members[i]
		assert.Equal(t, m.ID, g.ID)
		assert.Equal(t, m.Role, g.Role)
		assert.Equal(t, m.Active, g.Active)
		assert.True(t, m.SavingsBalance.Equal(g.SavingsBalance))
		assert.True(t, m.ShareBalance.Equal(g.ShareBalance))
		assert.True(t, m.JoinedAt.Equal(g.JoinedAt))
	}

	l, g := want.Loans[0], got.Loans[0]
	assert.Equal(t, l.GuarantorIDs, g.GuarantorIDs)
	assert.Equal(t, l.Status, g.Status)
	assert.True(t, l.RemainingBalance.Equal(g.RemainingBalance))
	assert.True(t, l.DisbursedAt.Equal(g.DisbursedAt))

	for i, txn := range want.Transactions {
		g := got.Transactions[i]
		assert.Equal(t, txn.ID, g.ID)
		assert.Equal(t, txn.Type, g.Type)
		assert.Equal(t, txn.Description, g.Description)
		assert.Equal(t, txn.Category, g.Category)
		assert.True(t, txn.Amount.Equal(g.Amount))
		assert.True(t, txn.Date.Equal(g.Date))
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn    string
		driver string
		source string
	}{
		{"sqlite:///var/books.db", "sqlite3", "/var/books.db"},
		{"sqlite://books.db", "sqlite3", "books.db"},
		{"file:books.db?cache=shared", "sqlite3", "file:books.db?cache=shared"},
		{"postgres://coop@localhost/books", "pgx", "postgres://coop@localhost/books"},
		{"postgresql://coop@localhost/books", "pgx", "postgresql://coop@localhost/books"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, source, err := ParseDSN(tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.source, source)
		})
	}

	for _, bad := range []string{"mysql://x", "sqlite://", "books.db"} {
		_, _, err := ParseDSN(bad)
		assert.ErrorIs(t, err, ErrUnsupportedDSN, bad)
	}
}

func TestDirSource_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(dir)
	want := sampleBook()

	require.NoError(t, src.Save(context.Background(), want))
	assert.FileExists(t, filepath.Join(dir, "2025", "01", "transactions.csv"))
	assert.FileExists(t, filepath.Join(dir, "2025", "02", "transactions.csv"))

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assertSameBook(t, want, got)
}

func TestDirSource_SaveDropsMonthsMissingFromBook(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(dir)
	stale := sampleBook()
	stale.Transactions = append(stale.Transactions, model.Transaction{
		ID: "TX-2025-06-001", Date: date(2025, 6, 3), Type: model.TxnIncome, Amount: dec("30"), ReceiptID: "RC-4",
	})
	require.NoError(t, src.Save(context.Background(), stale))
	require.FileExists(t, filepath.Join(dir, "2025", "06", "transactions.csv"))

	want := sampleBook()
	require.NoError(t, src.Save(context.Background(), want))
	assert.NoFileExists(t, filepath.Join(dir, "2025", "06", "transactions.csv"))
	assert.NoDirExists(t, filepath.Join(dir, "2025", "06"))

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assertSameBook(t, want, got)
}

func TestDirSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirSource(t.TempDir()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func openSQLite(t *testing.T) *SQLSource {
	t.Helper()
	src, err := OpenSQL(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSQLSource_RoundTrip(t *testing.T) {
	src := openSQLite(t)
	assert.Equal(t, "sqlite3", src.Driver())

	empty, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty.Accounts)

	want := sampleBook()
	require.NoError(t, src.Save(context.Background(), want))
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assertSameBook(t, want, got)
}

func TestSQLSource_SaveReplaces(t *testing.T) {
	src := openSQLite(t)
	book := sampleBook()
	require.NoError(t, src.Save(context.Background(), book))

	book.Transactions = book.Transactions[:1]
	book.Members[1].SavingsBalance = dec("40")
	require.NoError(t, src.Save(context.Background(), book))

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
	assert.True(t, got.Members[1].SavingsBalance.Equal(dec("40")))
}

func TestSQLSource_ReopenKeepsData(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "books.db")
	src, err := OpenSQL(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, src.Save(context.Background(), sampleBook()))
	require.NoError(t, src.Close())

	src, err = OpenSQL(context.Background(), dsn)
	require.NoError(t, err)
	defer src.Close()
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assertSameBook(t, sampleBook(), got)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(context.Background(), dir, "")
	require.NoError(t, err)
	assert.IsType(t, &DirSource{}, src)

	src, err = Open(context.Background(), dir, "sqlite://"+filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	defer src.Close()
	assert.IsType(t, &SQLSource{}, src)

	_, err = Open(context.Background(), dir, "mysql://nope")
	assert.ErrorIs(t, err, ErrUnsupportedDSN)
}
