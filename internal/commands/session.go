package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/config"
	"github.com/coopbooks/coopbooks/internal/export"
	"github.com/coopbooks/coopbooks/internal/gitops"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/members"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/posting"
	"github.com/coopbooks/coopbooks/internal/store"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

const dateFormat = "2006-01-02"

// session is one command's view of an open books directory.
type session struct {
	opts     *options
	dir      string
	cfg      *config.Config
	accounts *accounts.Service
	members  *members.Service
	loans    *loans.Service
	txns     *transactions.Service
	saved    ledgers
}

// ledgers is a copy of the three balance files as last read or written.
type ledgers struct {
	accounts []model.Account
	members  []model.Member
	loans    []model.Loan
}

func (s *session) current() ledgers {
	return ledgers{
		accounts: append([]model.Account(nil), s.accounts.All()...),
		members:  append([]model.Member(nil), s.members.All()...),
		loans:    append([]model.Loan(nil), s.loans.All()...),
	}
}

func (l ledgers) save(dir string) error {
	if err := accounts.NewService(l.accounts).Save(dir); err != nil {
		return err
	}
	if err := members.NewService(l.members).Save(dir); err != nil {
		return err
	}
	return loans.NewService(l.loans).Save(dir)
}

func openSession(opts *options) (*session, error) {
	dir, err := filepath.Abs(opts.booksDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s is not a books directory (run coopbooks init): %w", dir, err)
	}
	if err != nil {
		return nil, err
	}

	accts, err := accounts.Load(dir)
	if err != nil {
		return nil, err
	}
	mems, err := members.Load(dir)
	if err != nil {
		return nil, err
	}
	lns, err := loans.Load(dir)
	if err != nil {
		return nil, err
	}

	opts.log.Debug("opened books", "dir", dir, "accounts", len(accts.All()), "members", len(mems.All()), "loans", len(lns.All()))
	s := &session{
		opts:     opts,
		dir:      dir,
		cfg:      cfg,
		accounts: accts,
		members:  mems,
		loans:    lns,
		txns:     transactions.NewService(dir, transactions.Checkers{Members: mems, Accounts: accts}),
	}
	s.saved = s.current()
	return s, nil
}

// adopt replaces the session's ledgers with a book's, as after a pull.
func (s *session) adopt(book *model.Book) {
	s.accounts = accounts.NewService(book.Accounts)
	s.members = members.NewService(book.Members)
	s.loans = loans.NewService(book.Loans)
	s.txns = transactions.NewService(s.dir, transactions.Checkers{Members: s.members, Accounts: s.accounts})
}

// dsn is the --db flag, falling back to the configured database.
func (s *session) dsn() string {
	if s.opts.dsn != "" {
		return s.opts.dsn
	}
	return s.cfg.Database.URL
}

// book loads a full snapshot for reporting, from the database when one is set.
func (s *session) book(ctx context.Context) (*model.Book, error) {
	src, err := store.Open(ctx, s.dir, s.dsn())
	if err != nil {
		return nil, err
	}
	defer src.Close()

	book, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading books: %w", err)
	}
	s.opts.log.Debug("loaded book", "transactions", len(book.Transactions))
	return book, nil
}

func (s *session) poster() *posting.Poster {
	return posting.NewPoster(s.accounts, s.members, s.loans, s.cfg.Accounts)
}

// record prepares, posts, and stages one transaction. Nothing reaches disk
// until finish.
func (s *session) record(p transactions.RecordParams) (model.Transaction, posting.Effect, error) {
	if p.RecordedBy == "" {
		p.RecordedBy = s.opts.actor
	}
	txn, err := s.txns.Prepare(p)
	if err != nil {
		return model.Transaction{}, posting.Effect{}, err
	}
	eff, err := s.poster().Post(txn)
	if err != nil {
		return model.Transaction{}, posting.Effect{}, err
	}
	s.txns.Stage(txn)
	return txn, eff, nil
}

// check runs every params through validation and posting against copies of
// the ledgers, so a batch can be rejected before anything is written.
func (s *session) check(params []transactions.RecordParams) error {
	accts := accounts.NewService(append([]model.Account(nil), s.accounts.All()...))
	mems := members.NewService(append([]model.Member(nil), s.members.All()...))
	lns := loans.NewService(append([]model.Loan(nil), s.loans.All()...))
	txns := transactions.NewService(s.dir, transactions.Checkers{Members: mems, Accounts: accts})
	poster := posting.NewPoster(accts, mems, lns, s.cfg.Accounts)

	for i, p := range params {
		txn, err := txns.Prepare(p)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := poster.Post(txn); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		txns.Stage(txn)
	}
	return nil
}

// finish saves the ledgers, writes staged transactions, mirrors the books to
// the database, commits the books directory, and appends entries to the
// audit log. Ledgers are written before transactions; when no transaction
// could be written the previous ledgers are put back.
func (s *session) finish(ctx context.Context, entries ...auditlog.Entry) error {
	if err := s.current().save(s.dir); err != nil {
		if rerr := s.saved.save(s.dir); rerr != nil {
			s.opts.log.Error("restoring ledgers", "error", rerr)
		}
		return err
	}
	pending := len(s.txns.Staged())
	if err := s.txns.Flush(); err != nil {
		if len(s.txns.Staged()) == pending {
			if rerr := s.saved.save(s.dir); rerr != nil {
				s.opts.log.Error("restoring ledgers", "error", rerr)
			}
		} else {
			s.opts.log.Error("transactions partly written; ledgers include every staged row", "unwritten", len(s.txns.Staged()))
		}
		return err
	}
	s.saved = s.current()

	if dsn := s.dsn(); dsn != "" {
		if err := mirror(ctx, store.NewDirSource(s.dir), dsn); err != nil {
			return fmt.Errorf("mirroring to database: %w", err)
		}
		s.opts.log.Debug("mirrored books to database")
	}

	var hash string
	if s.cfg.Git.AutoCommit && len(entries) > 0 {
		repo := gitops.Open(s.dir, gitops.Author{Name: s.cfg.Git.AuthorName, Email: s.cfg.Git.AuthorEmail})
		if repo.IsRepo() {
			var err error
			hash, err = repo.CommitAll(ctx, commitMessage(entries))
			if err != nil {
				s.opts.log.Warn("git commit failed", "error", err)
			}
		}
	}

	for i := range entries {
		entries[i].CommitHash = hash
	}
	if err := auditlog.New(s.dir, s.opts.actor).Append(entries...); err != nil {
		return err
	}
	for _, e := range entries {
		s.opts.log.Info("books updated", "action", e.Action, "transaction", e.TransactionID, "commit", hash)
	}
	return nil
}

func commitMessage(entries []auditlog.Entry) string {
	msg := entries[0].Action + ": " + entries[0].Details
	if len(entries) > 1 {
		msg += fmt.Sprintf(" (+%d more)", len(entries)-1)
	}
	return msg
}

// mirror copies the books directory into the database named by dsn.
func mirror(ctx context.Context, from store.Source, dsn string) error {
	book, err := from.Load(ctx)
	if err != nil {
		return err
	}
	db, err := store.OpenSQL(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Save(ctx, book)
}

func effectDetails(txn model.Transaction, eff posting.Effect) string {
	parts := make([]string, 0, len(eff.Changes))
	for _, c := range eff.Changes {
		parts = append(parts, c.String())
	}
	head := fmt.Sprintf("%s %s", txn.Type, txn.Amount.StringFixed(2))
	if txn.MemberID != "" {
		head += " " + txn.MemberID
	}
	return head + "; " + strings.Join(parts, ", ")
}

func parseAmount(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("--%s is required", name)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing --%s %q: %w", name, s, err)
	}
	return d, nil
}

// parseDate accepts YYYY-MM-DD; empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// output writes a table to path, or to w when path is empty.
func output(w io.Writer, t export.Table, format, path string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if path == "" {
		return export.Write(w, t, f)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()
	if err := export.Write(file, t, f); err != nil {
		return err
	}
	return file.Close()
}
