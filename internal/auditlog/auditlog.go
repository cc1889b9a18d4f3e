// Package auditlog keeps the append-only record of every change made to the
// books, stored as logs/audit-log.csv.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions written by the CLI.
const (
	ActionInit          = "init"
	ActionRecord        = "record_transaction"
	ActionAddAccount    = "add_account"
	ActionRemoveAccount = "remove_account"
	ActionAddMember     = "add_member"
	ActionAddLoan       = "add_loan"
	ActionImport        = "import_batch"
	ActionDividends     = "declare_dividends"
	ActionReconcile     = "cash_count"
	ActionPush          = "db_push"
	ActionPull          = "db_pull"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp     time.Time
	Actor         string
	Action        string
	Details       string
	TransactionID string
	CommitHash    string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,actor,action,details,transaction_id,commit_hash"

const (
	numFields     = 6
	colTimestamp  = 0
	colActor      = 1
	colAction     = 2
	colDetails    = 3
	colTxnID      = 4
	colCommitHash = 5
)

// Path returns the audit log location inside a books directory.
func Path(booksDir string) string {
	return filepath.Join(booksDir, "logs", "audit-log.csv")
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colTxnID] = e.TransactionID
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp:     ts,
		Actor:         record[colActor],
		Action:        record[colAction],
		Details:       record[colDetails],
		TransactionID: record[colTxnID],
		CommitHash:    record[colCommitHash],
	}, nil
}

// Log appends to and reads the audit log of one books directory.
type Log struct {
	booksDir string
	actor    string
	now      func() time.Time
}

// New returns a Log for booksDir. Entries without an actor are stamped with actor.
func New(booksDir, actor string) *Log {
	return &Log{booksDir: booksDir, actor: actor, now: time.Now}
}

// Append writes entries, creating the file and header if needed. Entries
// without a timestamp get the current time.
func (l *Log) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	path := Path(l.booksDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	_, statErr := os.Stat(path)
	needsHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = l.now()
		}
		if e.Actor == "" {
			e.Actor = l.actor
		}
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every entry in file order. A missing log yields no entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(Path(l.booksDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()
	return ReadEntries(f)
}

// ReadEntries parses an audit log CSV including its header.
func ReadEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ForTransaction returns entries that touched txnID.
func ForTransaction(entries []Entry, txnID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.TransactionID == txnID {
			out = append(out, e)
		}
	}
	return out
}

// Since returns entries at or after t.
func Since(entries []Entry, t time.Time) []Entry {
	var out []Entry
	for _, e := range entries {
		if !e.Timestamp.Before(t) {
			out = append(out, e)
		}
	}
	return out
}
