package transactions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/id"
	"github.com/coopbooks/coopbooks/internal/model"
)

// FileName is the per-month transactions file under YYYY/MM/.
const FileName = "transactions.csv"

// Service records and reads month-partitioned transactions in a books directory.
type Service struct {
	booksDir string
	checkers Checkers
	now      func() time.Time
	staged   []model.Transaction
}

// NewService creates a transactions Service.
func NewService(booksDir string, checkers Checkers) *Service {
	return &Service{booksDir: booksDir, checkers: checkers, now: time.Now}
}

// RecordParams holds parameters for recording a transaction.
type RecordParams struct {
	Date        time.Time
	Type        model.TransactionType
	Category    string
	Amount      decimal.Decimal
	MemberID    string
	LoanID      string
	Description string
	ReceiptID   string
	RecordedBy  string
}

// Record validates a transaction against its month and appends it to the
// month's transactions.csv. A receipt ID is generated when none is given.
func (s *Service) Record(params RecordParams) (model.Transaction, error) {
	txn, err := s.Prepare(params)
	if err != nil {
		return model.Transaction{}, err
	}
	if err := s.Append(txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

// Prepare assigns the next ID in the transaction's month and validates it
// without writing anything.
func (s *Service) Prepare(params RecordParams) (model.Transaction, error) {
	if params.Date.IsZero() {
		params.Date = s.now()
	}
	year := params.Date.Year()
	month := int(params.Date.Month())

	existing, err := s.ReadMonth(year, month)
	if err != nil {
		return model.Transaction{}, err
	}
	for _, txn := range s.staged {
		if txn.Date.Year() == year && int(txn.Date.Month()) == month {
			existing = append(existing, txn)
		}
	}

	txn := model.Transaction{
		ID:          id.FormatTxnID(year, month, nextSeq(existing)),
		Date:        params.Date,
		Type:        params.Type,
		Category:    params.Category,
		Amount:      params.Amount,
		MemberID:    params.MemberID,
		LoanID:      params.LoanID,
		Description: params.Description,
		ReceiptID:   params.ReceiptID,
		RecordedBy:  params.RecordedBy,
	}
	if txn.ReceiptID == "" {
		txn.ReceiptID = id.NewReceiptID()
	}

	// Only the new row is checked; rows already on disk were accepted earlier.
	if verrs := Validate([]model.Transaction{txn}, s.checkers, year, month); len(verrs) > 0 {
		return model.Transaction{}, joinValidation(verrs)
	}
	return txn, nil
}

// Append writes a prepared transaction to its month file.
func (s *Service) Append(txn model.Transaction) error {
	year, month := txn.Date.Year(), int(txn.Date.Month())
	path := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating month dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendTransactions(f, []model.Transaction{txn}); err != nil {
		return fmt.Errorf("appending transaction: %w", err)
	}
	return nil
}

// Stage holds a prepared transaction in memory until Flush. Later Prepare
// calls number after it.
func (s *Service) Stage(txn model.Transaction) {
	s.staged = append(s.staged, txn)
}

// Staged returns the transactions waiting for Flush.
func (s *Service) Staged() []model.Transaction {
	return s.staged
}

// Flush appends staged transactions in order. Rows written before a failure
// stay on disk and leave the stage; the rest stay staged.
func (s *Service) Flush() error {
	for len(s.staged) > 0 {
		if err := s.Append(s.staged[0]); err != nil {
			return fmt.Errorf("flushing %s: %w", s.staged[0].ID, err)
		}
		s.staged = s.staged[1:]
	}
	return nil
}

// Discard drops staged transactions without writing them.
func (s *Service) Discard() {
	s.staged = nil
}

// ReadMonth reads all transactions for a given year/month.
func (s *Service) ReadMonth(year, month int) ([]model.Transaction, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transactions %s: %w", path, err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading transactions %s: %w", path, err)
	}
	return txns, nil
}

// ReadAll reads every month in the books directory in chronological order.
func (s *Service) ReadAll() ([]model.Transaction, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}
	var all []model.Transaction
	for _, ym := range months {
		txns, err := s.ReadMonth(ym[0], ym[1])
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}
	return all, nil
}

// Months lists the [year, month] pairs that have a transactions file.
func (s *Service) Months() ([][2]int, error) {
	years, err := os.ReadDir(s.booksDir)
	if err != nil {
		return nil, fmt.Errorf("reading books dir: %w", err)
	}

	var out [][2]int
	for _, y := range years {
		year, err := strconv.Atoi(y.Name())
		if !y.IsDir() || err != nil || len(y.Name()) != 4 {
			continue
		}
		months, err := os.ReadDir(filepath.Join(s.booksDir, y.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", y.Name(), err)
		}
		for _, m := range months {
			month, err := strconv.Atoi(m.Name())
			if !m.IsDir() || err != nil || month < 1 || month > 12 {
				continue
			}
			if _, err := os.Stat(s.monthPath(year, month)); err == nil {
				out = append(out, [2]int{year, month})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out, nil
}

// WriteMonth replaces a month's file with txns. Used when restoring from another source.
func (s *Service) WriteMonth(year, month int, txns []model.Transaction) error {
	path := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating month dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transactions %s: %w", path, err)
	}
	defer f.Close()
	return WriteTransactions(f, txns)
}

// RemoveMonth deletes a month's file and its directory when that leaves it empty.
func (s *Service) RemoveMonth(year, month int) error {
	path := s.monthPath(year, month)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing transactions %s: %w", path, err)
	}
	// Fails harmlessly when other files remain.
	_ = os.Remove(filepath.Dir(path))
	return nil
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.booksDir, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), FileName)
}

func nextSeq(txns []model.Transaction) int {
	maxSeq := 0
	for _, txn := range txns {
		_, _, seq, err := id.ParseTxnID(txn.ID)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

func joinValidation(verrs []ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// ByMember returns the transactions that reference memberID.
func ByMember(txns []model.Transaction, memberID string) []model.Transaction {
	var out []model.Transaction
	for _, txn := range txns {
		if txn.MemberID == memberID {
			out = append(out, txn)
		}
	}
	return out
}

// ByType returns the transactions of the given types.
func ByType(txns []model.Transaction, types ...model.TransactionType) []model.Transaction {
	var out []model.Transaction
	for _, txn := range txns {
		for _, t := range types {
			if txn.Type == t {
				out = append(out, txn)
				break
			}
		}
	}
	return out
}

// Between returns transactions dated within [from, to]. Zero bounds are open.
func Between(txns []model.Transaction, from, to time.Time) []model.Transaction {
	var out []model.Transaction
	for _, txn := range txns {
		if !from.IsZero() && txn.Date.Before(from) {
			continue
		}
		if !to.IsZero() && txn.Date.After(to) {
			continue
		}
		out = append(out, txn)
	}
	return out
}

// Sum adds up the amounts of txns.
func Sum(txns []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Amount)
	}
	return total
}
