package loans

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/id"
	"github.com/coopbooks/coopbooks/internal/model"
)

// IDPrefix starts every generated loan ID.
const IDPrefix = "L"

var (
	// ErrNotFound is returned for unknown loan IDs.
	ErrNotFound = errors.New("loan not found")
	// ErrNotActive is returned when moving money on a loan in the wrong state.
	ErrNotActive = errors.New("loan is not active")
)

// Service keeps loans in memory, keyed by ID.
type Service struct {
	loans []model.Loan
	byID  map[string]int
}

// NewService creates a Service from a slice of loans.
func NewService(loans []model.Loan) *Service {
	s := &Service{byID: make(map[string]int, len(loans))}
	for _, l := range loans {
		s.byID[l.ID] = len(s.loans)
		s.loans = append(s.loans, l)
	}
	return s
}

// Path returns the loans file location inside a books directory.
func Path(booksDir string) string {
	return filepath.Join(booksDir, "loans", "loans.csv")
}

// Load reads loans.csv from a books directory. A missing file yields an empty Service.
func Load(booksDir string) (*Service, error) {
	f, err := os.Open(Path(booksDir))
	if errors.Is(err, os.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening loans: %w", err)
	}
	defer f.Close()

	ls, err := ReadLoans(f)
	if err != nil {
		return nil, fmt.Errorf("reading loans: %w", err)
	}
	return NewService(ls), nil
}

// All returns all loans in insertion order.
func (s *Service) All() []model.Loan {
	return s.loans
}

// Get returns a loan by ID.
func (s *Service) Get(loanID string) (model.Loan, bool) {
	i, ok := s.byID[loanID]
	if !ok {
		return model.Loan{}, false
	}
	return s.loans[i], true
}

// Add registers a new pending loan. Nothing is owed until Disburse.
func (s *Service) Add(l model.Loan) (model.Loan, error) {
	if l.MemberID == "" {
		return model.Loan{}, errors.New("loan member is required")
	}
	if !l.PrincipalAmount.IsPositive() {
		return model.Loan{}, errors.New("loan principal must be positive")
	}
	if l.InterestRate.IsNegative() {
		return model.Loan{}, errors.New("interest rate cannot be negative")
	}
	if l.TermMonths <= 0 {
		return model.Loan{}, errors.New("loan term must be at least one month")
	}
	if l.ID == "" {
		ids := make([]string, 0, len(s.loans))
		for _, existing := range s.loans {
			ids = append(ids, existing.ID)
		}
		l.ID = id.NextSeqID(IDPrefix, ids)
	}
	if _, ok := s.byID[l.ID]; ok {
		return model.Loan{}, fmt.Errorf("loan %s already exists", l.ID)
	}
	if l.Status == "" {
		l.Status = model.LoanPending
	}
	l.RemainingBalance = decimal.Zero
	if l.Status != model.LoanPending {
		l.RemainingBalance = l.PrincipalAmount
	}
	s.byID[l.ID] = len(s.loans)
	s.loans = append(s.loans, l)
	return l, nil
}

// Disburse marks a pending loan active as of date and puts the full
// principal outstanding.
func (s *Service) Disburse(loanID string, date time.Time) (model.Loan, error) {
	i, ok := s.byID[loanID]
	if !ok {
		return model.Loan{}, fmt.Errorf("%w: %s", ErrNotFound, loanID)
	}
	if s.loans[i].Status != model.LoanPending {
		return model.Loan{}, fmt.Errorf("loan %s is %s, only pending loans can be disbursed", loanID, s.loans[i].Status)
	}
	s.loans[i].Status = model.LoanActive
	s.loans[i].RemainingBalance = s.loans[i].PrincipalAmount
	s.loans[i].DisbursedAt = date
	return s.loans[i], nil
}

// PreviewRepayment computes the split for a loan without changing it.
func (s *Service) PreviewRepayment(loanID string, tendered decimal.Decimal) (RepaymentSplit, error) {
	l, ok := s.Get(loanID)
	if !ok {
		return RepaymentSplit{}, fmt.Errorf("%w: %s", ErrNotFound, loanID)
	}
	return Split(l.RemainingBalance, l.InterestRate, tendered), nil
}

// ApplyRepayment splits tendered against an active loan and reduces its
// balance by the principal portion. A loan paid down to zero becomes paid.
func (s *Service) ApplyRepayment(loanID string, tendered decimal.Decimal) (RepaymentSplit, error) {
	i, ok := s.byID[loanID]
	if !ok {
		return RepaymentSplit{}, fmt.Errorf("%w: %s", ErrNotFound, loanID)
	}
	l := &s.loans[i]
	if l.Status != model.LoanActive && l.Status != model.LoanDefaulted {
		return RepaymentSplit{}, fmt.Errorf("%w: %s is %s", ErrNotActive, loanID, l.Status)
	}

	split := Split(l.RemainingBalance, l.InterestRate, tendered)
	l.RemainingBalance = split.BalanceAfter
	if l.RemainingBalance.IsZero() {
		l.Status = model.LoanPaid
	}
	return split, nil
}

// Outstanding sums the remaining balance across loans.
func Outstanding(ls []model.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		total = total.Add(l.RemainingBalance)
	}
	return total
}

// Save writes loans to loans/loans.csv.
func (s *Service) Save(booksDir string) error {
	path := Path(booksDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating loans dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating loans file: %w", err)
	}
	defer f.Close()

	if err := WriteLoans(f, s.loans); err != nil {
		return fmt.Errorf("writing loans: %w", err)
	}
	return nil
}
