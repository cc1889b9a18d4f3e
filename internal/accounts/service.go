package accounts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

var (
	// ErrNotFound is returned when an account code is not in the chart.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when adding a code that already exists.
	ErrDuplicate = errors.New("account code already exists")
)

// Service provides in-memory lookup and balance updates over the chart of accounts.
type Service struct {
	accounts []model.Account
	byCode   map[string]int
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	s := &Service{byCode: make(map[string]int, len(accounts))}
	for _, a := range accounts {
		s.byCode[a.Code] = len(s.accounts)
		s.accounts = append(s.accounts, a)
	}
	return s
}

// Path returns the chart-of-accounts location inside a books directory.
func Path(booksDir string) string {
	return filepath.Join(booksDir, "accounts", "chart-of-accounts.csv")
}

// Load reads chart-of-accounts.csv from a books directory and returns a Service.
func Load(booksDir string) (*Service, error) {
	f, err := os.Open(Path(booksDir))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns every account, including soft-deleted ones.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Active returns the accounts that have not been removed.
func (s *Service) Active() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if !a.Deleted {
			result = append(result, a)
		}
	}
	return result
}

// Get returns an active account by code.
func (s *Service) Get(code string) (model.Account, bool) {
	i, ok := s.byCode[code]
	if !ok || s.accounts[i].Deleted {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Exists reports whether an active account code exists.
func (s *Service) Exists(code string) bool {
	_, ok := s.Get(code)
	return ok
}

// ByCategory returns all active accounts of the given category.
func (s *Service) ByCategory(category model.Category) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Category == category && !a.Deleted {
			result = append(result, a)
		}
	}
	return result
}

// Add appends a new account to the chart.
func (s *Service) Add(acct model.Account) error {
	if acct.Code == "" {
		return errors.New("account code is required")
	}
	if !acct.Category.Valid() {
		return fmt.Errorf("invalid category %q", acct.Category)
	}
	if i, ok := s.byCode[acct.Code]; ok {
		if !s.accounts[i].Deleted {
			return fmt.Errorf("%w: %s", ErrDuplicate, acct.Code)
		}
		// Re-adding a removed code revives the slot.
		s.accounts[i] = acct
		return nil
	}
	s.byCode[acct.Code] = len(s.accounts)
	s.accounts = append(s.accounts, acct)
	return nil
}

// Remove soft-deletes an account. Its row stays on disk with deleted=true.
func (s *Service) Remove(code string) error {
	i, ok := s.byCode[code]
	if !ok || s.accounts[i].Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	s.accounts[i].Deleted = true
	return nil
}

// Adjust adds delta to an account's running balance and returns the new balance.
func (s *Service) Adjust(code string, delta decimal.Decimal) (decimal.Decimal, error) {
	i, ok := s.byCode[code]
	if !ok || s.accounts[i].Deleted {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	s.accounts[i].Balance = s.accounts[i].Balance.Add(delta)
	return s.accounts[i].Balance, nil
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(booksDir string) error {
	path := Path(booksDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
