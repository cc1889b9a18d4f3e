package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/members"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

// DirSource is a book kept as CSV files in a books directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource rooted at booksDir.
func NewDirSource(booksDir string) *DirSource {
	return &DirSource{dir: booksDir}
}

// Dir returns the books directory.
func (d *DirSource) Dir() string { return d.dir }

// Load reads every ledger file in the books directory.
func (d *DirSource) Load(ctx context.Context) (*model.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accts, err := accounts.Load(d.dir)
	if err != nil {
		return nil, err
	}
	mems, err := members.Load(d.dir)
	if err != nil {
		return nil, err
	}
	lns, err := loans.Load(d.dir)
	if err != nil {
		return nil, err
	}
	txns, err := transactions.NewService(d.dir, transactions.Checkers{}).ReadAll()
	if err != nil {
		return nil, err
	}
	return &model.Book{
		Accounts:     accts.All(),
		Members:      mems.All(),
		Loans:        lns.All(),
		Transactions: txns,
	}, nil
}

// Save replaces the directory's ledgers with the book: one transactions file
// per month present in it, and month files the book lacks are removed.
func (d *DirSource) Save(ctx context.Context, book *model.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := accounts.NewService(book.Accounts).Save(d.dir); err != nil {
		return err
	}
	if err := members.NewService(book.Members).Save(d.dir); err != nil {
		return err
	}
	if err := loans.NewService(book.Loans).Save(d.dir); err != nil {
		return err
	}

	type ym struct{ year, month int }
	byMonth := make(map[ym][]model.Transaction)
	var order []ym
	for _, txn := range book.Transactions {
		k := ym{txn.Date.Year(), int(txn.Date.Month())}
		if _, ok := byMonth[k]; !ok {
			order = append(order, k)
		}
		byMonth[k] = append(byMonth[k], txn)
	}
	txnSvc := transactions.NewService(d.dir, transactions.Checkers{})
	existing, err := txnSvc.Months()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, m := range existing {
		if _, ok := byMonth[ym{m[0], m[1]}]; ok {
			continue
		}
		if err := txnSvc.RemoveMonth(m[0], m[1]); err != nil {
			return err
		}
	}
	for _, k := range order {
		if err := txnSvc.WriteMonth(k.year, k.month, byMonth[k]); err != nil {
			return fmt.Errorf("saving %04d-%02d: %w", k.year, k.month, err)
		}
	}
	return nil
}

// Close is a no-op for directories.
func (d *DirSource) Close() error { return nil }
