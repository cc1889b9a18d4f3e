package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/members"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

// ErrUnsupportedDSN is returned for DSNs whose scheme has no driver.
var ErrUnsupportedDSN = errors.New("unsupported database DSN")

// table maps one ledger entity onto a table. Columns follow the CSV layout of
// the entity so rows reuse the CSV codecs; every column is TEXT.
type table struct {
	name    string
	columns []string
	orderBy string
}

var (
	accountsTable = table{
		name:    "accounts",
		columns: []string{"account_code", "account_name", "category", "balance", "description", "deleted"},
		orderBy: "account_code",
	}
	membersTable = table{
		name:    "members",
		columns: []string{"member_id", "name", "role", "share_balance", "savings_balance", "joined_at", "active"},
		orderBy: "member_id",
	}
	loansTable = table{
		name:    "loans",
		columns: []string{"loan_id", "member_id", "principal_amount", "remaining_balance", "interest_rate", "term_months", "status", "guarantor_ids", "disbursed_at"},
		orderBy: "loan_id",
	}
	transactionsTable = table{
		name:    "transactions",
		columns: []string{"transaction_id", "txn_date", "type", "category", "amount", "member_id", "loan_id", "description", "receipt_id", "recorded_by"},
		orderBy: "txn_date, transaction_id",
	}
	tables = []table{accountsTable, membersTable, loansTable, transactionsTable}
)

func (t table) createSQL() string {
	cols := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c + " TEXT NOT NULL DEFAULT ''"
	}
	cols[0] = t.columns[0] + " TEXT PRIMARY KEY"
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(cols, ",\n\t"))
}

func (t table) insertSQL() string {
	marks := make([]string, len(t.columns))
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), strings.Join(marks, ", "))
}

func (t table) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(t.columns, ", "), t.name, t.orderBy)
}

// SQLSource is a book stored in SQLite or PostgreSQL.
type SQLSource struct {
	db     *sql.DB
	driver string
}

// ParseDSN picks a database/sql driver for a DSN.
//
//	sqlite://path/to/books.db  -> sqlite3, path/to/books.db
//	file:books.db?cache=shared -> sqlite3, unchanged
//	postgres://... postgresql://... -> pgx, unchanged
func ParseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%w: %q has no path", ErrUnsupportedDSN, dsn)
		}
		return "sqlite3", path, nil
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite3", dsn, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
}

// OpenSQL connects to the database named by dsn and creates missing tables.
func OpenSQL(ctx context.Context, dsn string) (*SQLSource, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}

	s := &SQLSource{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Driver returns the database/sql driver name in use.
func (s *SQLSource) Driver() string { return s.driver }

func (s *SQLSource) migrate(ctx context.Context) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, t.createSQL()); err != nil {
			return fmt.Errorf("creating table %s: %w", t.name, err)
		}
	}
	return nil
}

// Load reads the whole book.
func (s *SQLSource) Load(ctx context.Context) (*model.Book, error) {
	book := &model.Book{}

	err := s.query(ctx, accountsTable, func(rec []string) error {
		a, err := accounts.UnmarshalAccount(rec)
		book.Accounts = append(book.Accounts, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = s.query(ctx, membersTable, func(rec []string) error {
		m, err := members.UnmarshalMember(rec)
		book.Members = append(book.Members, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = s.query(ctx, loansTable, func(rec []string) error {
		l, err := loans.UnmarshalLoan(rec)
		book.Loans = append(book.Loans, l)
		return err
	})
	if err != nil {
		return nil, err
	}
	err = s.query(ctx, transactionsTable, func(rec []string) error {
		txn, err := transactions.UnmarshalTransaction(rec)
		book.Transactions = append(book.Transactions, txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *SQLSource) query(ctx context.Context, t table, fn func([]string) error) error {
	rows, err := s.db.QueryContext(ctx, t.selectSQL())
	if err != nil {
		return fmt.Errorf("querying %s: %w", t.name, err)
	}
	defer rows.Close()

	rec := make([]string, len(t.columns))
	dest := make([]any, len(rec))
	for i := range rec {
		dest[i] = &rec[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scanning %s: %w", t.name, err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("decoding %s row %s: %w", t.name, rec[0], err)
		}
	}
	return rows.Err()
}

// Save replaces the stored book with book inside one transaction.
func (s *SQLSource) Save(ctx context.Context, book *model.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	rows := map[string][][]string{}
	for _, a := range book.Accounts {
		rows[accountsTable.name] = append(rows[accountsTable.name], accounts.MarshalAccount(a))
	}
	for _, m := range book.Members {
		rows[membersTable.name] = append(rows[membersTable.name], members.MarshalMember(m))
	}
	for _, l := range book.Loans {
		rows[loansTable.name] = append(rows[loansTable.name], loans.MarshalLoan(l))
	}
	for _, txn := range book.Transactions {
		rows[transactionsTable.name] = append(rows[transactionsTable.name], transactions.MarshalTransaction(txn))
	}

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
			return fmt.Errorf("clearing %s: %w", t.name, err)
		}
		stmt, err := tx.PrepareContext(ctx, t.insertSQL())
		if err != nil {
			return fmt.Errorf("preparing %s insert: %w", t.name, err)
		}
		for _, rec := range rows[t.name] {
			args := make([]any, len(rec))
			for i, v := range rec {
				args[i] = v
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				stmt.Close()
				return fmt.Errorf("inserting %s %s: %w", t.name, rec[0], err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	return s.db.Close()
}
