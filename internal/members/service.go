package members

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/id"
	"github.com/coopbooks/coopbooks/internal/model"
)

// IDPrefix starts every generated member ID.
const IDPrefix = "M"

var (
	// ErrNotFound is returned for unknown member IDs.
	ErrNotFound = errors.New("member not found")
	// ErrInsufficientSavings is returned when a withdrawal exceeds the savings balance.
	ErrInsufficientSavings = errors.New("insufficient savings balance")
)

// Service keeps members in memory, keyed by ID.
type Service struct {
	members []model.Member
	byID    map[string]int
}

// NewService creates a Service from a slice of members.
func NewService(members []model.Member) *Service {
	s := &Service{byID: make(map[string]int, len(members))}
	for _, m := range members {
		s.byID[m.ID] = len(s.members)
		s.members = append(s.members, m)
	}
	return s
}

// Path returns the members file location inside a books directory.
func Path(booksDir string) string {
	return filepath.Join(booksDir, "members", "members.csv")
}

// Load reads members.csv from a books directory. A missing file yields an empty Service.
func Load(booksDir string) (*Service, error) {
	f, err := os.Open(Path(booksDir))
	if errors.Is(err, os.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening members: %w", err)
	}
	defer f.Close()

	ms, err := ReadMembers(f)
	if err != nil {
		return nil, fmt.Errorf("reading members: %w", err)
	}
	return NewService(ms), nil
}

// All returns all members in insertion order.
func (s *Service) All() []model.Member {
	return s.members
}

// Get returns a member by ID.
func (s *Service) Get(memberID string) (model.Member, bool) {
	i, ok := s.byID[memberID]
	if !ok {
		return model.Member{}, false
	}
	return s.members[i], true
}

// Exists reports whether a member ID exists.
func (s *Service) Exists(memberID string) bool {
	_, ok := s.byID[memberID]
	return ok
}

// NextID returns the ID the next added member would get.
func (s *Service) NextID() string {
	ids := make([]string, 0, len(s.members))
	for _, m := range s.members {
		ids = append(ids, m.ID)
	}
	return id.NextSeqID(IDPrefix, ids)
}

// Add registers a member. An empty ID is assigned from NextID.
func (s *Service) Add(m model.Member) (model.Member, error) {
	if m.Name == "" {
		return model.Member{}, errors.New("member name is required")
	}
	if m.ID == "" {
		m.ID = s.NextID()
	}
	if _, ok := s.byID[m.ID]; ok {
		return model.Member{}, fmt.Errorf("member %s already exists", m.ID)
	}
	if m.Role == "" {
		m.Role = model.RoleMember
	}
	s.byID[m.ID] = len(s.members)
	s.members = append(s.members, m)
	return m, nil
}

// AdjustSavings adds delta to a member's savings. The balance may not go negative.
func (s *Service) AdjustSavings(memberID string, delta decimal.Decimal) (decimal.Decimal, error) {
	i, ok := s.byID[memberID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, memberID)
	}
	next := s.members[i].SavingsBalance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s has %s", ErrInsufficientSavings, memberID, s.members[i].SavingsBalance.StringFixed(2))
	}
	s.members[i].SavingsBalance = next
	return next, nil
}

// AdjustShares adds delta to a member's share balance. The balance may not go negative.
func (s *Service) AdjustShares(memberID string, delta decimal.Decimal) (decimal.Decimal, error) {
	i, ok := s.byID[memberID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, memberID)
	}
	next := s.members[i].ShareBalance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("share balance of %s would go negative", memberID)
	}
	s.members[i].ShareBalance = next
	return next, nil
}

// Totals returns the summed share and savings balances.
func (s *Service) Totals() (shares, savings decimal.Decimal) {
	return Totals(s.members)
}

// Totals sums share and savings balances across members.
func Totals(members []model.Member) (shares, savings decimal.Decimal) {
	shares, savings = decimal.Zero, decimal.Zero
	for _, m := range members {
		shares = shares.Add(m.ShareBalance)
		savings = savings.Add(m.SavingsBalance)
	}
	return shares, savings
}

// Sorted returns a copy of members ordered by ID.
func Sorted(members []model.Member) []model.Member {
	out := append([]model.Member(nil), members...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Save writes members to members/members.csv.
func (s *Service) Save(booksDir string) error {
	path := Path(booksDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating members dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating members file: %w", err)
	}
	defer f.Close()

	if err := WriteMembers(f, s.members); err != nil {
		return fmt.Errorf("writing members: %w", err)
	}
	return nil
}
