package members

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

const (
	numFields  = 7
	dateFormat = "2006-01-02"
	colID      = 0
	colName    = 1
	colRole    = 2
	colShares  = 3
	colSavings = 4
	colJoined  = 5
	colActive  = 6
)

var header = []string{"member_id", "name", "role", "share_balance", "savings_balance", "joined_at", "active"}

// ReadMembers reads members.csv.
func ReadMembers(r io.Reader) ([]model.Member, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading members CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var members []model.Member
	for i, rec := range records[1:] {
		m, err := UnmarshalMember(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		members = append(members, m)
	}
	return members, nil
}

// WriteMembers writes members.csv.
func WriteMembers(w io.Writer, members []model.Member) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, m := range members {
		if err := cw.Write(MarshalMember(m)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalMember converts a Member to a CSV row.
func MarshalMember(m model.Member) []string {
	row := make([]string, numFields)
	row[colID] = m.ID
	row[colName] = m.Name
	row[colRole] = string(m.Role)
	row[colShares] = m.ShareBalance.StringFixed(2)
	row[colSavings] = m.SavingsBalance.StringFixed(2)
	if !m.JoinedAt.IsZero() {
		row[colJoined] = m.JoinedAt.Format(dateFormat)
	}
	row[colActive] = strconv.FormatBool(m.Active)
	return row
}

// UnmarshalMember converts a CSV row to a Member.
func UnmarshalMember(record []string) (model.Member, error) {
	if len(record) != numFields {
		return model.Member{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	shares, err := parseAmount(record[colShares])
	if err != nil {
		return model.Member{}, fmt.Errorf("parsing share_balance %q: %w", record[colShares], err)
	}
	savings, err := parseAmount(record[colSavings])
	if err != nil {
		return model.Member{}, fmt.Errorf("parsing savings_balance %q: %w", record[colSavings], err)
	}

	var joined time.Time
	if record[colJoined] != "" {
		joined, err = time.Parse(dateFormat, record[colJoined])
		if err != nil {
			return model.Member{}, fmt.Errorf("parsing joined_at %q: %w", record[colJoined], err)
		}
	}

	active := true
	if record[colActive] != "" {
		active, err = strconv.ParseBool(record[colActive])
		if err != nil {
			return model.Member{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
		}
	}

	return model.Member{
		ID:             record[colID],
		Name:           record[colName],
		Role:           model.Role(record[colRole]),
		ShareBalance:   shares,
		SavingsBalance: savings,
		JoinedAt:       joined,
		Active:         active,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
