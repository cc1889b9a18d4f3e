package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/transactions"
)

// PassbookParser reads a meeting sheet copied from member passbooks:
//
//	Date,Member,Deposit,Withdrawal,Shares,Fine
//
// Dates are DD/MM/YYYY. Each non-empty amount column becomes its own
// transaction, in column order.
type PassbookParser struct{}

const (
	passbookDateFormat = "02/01/2006"
	passbookNumFields  = 6
	passbookColDate    = 0
	passbookColMember  = 1
)

var passbookColumns = []struct {
	col int
	typ model.TransactionType
}{
	{2, model.TxnDeposit},
	{3, model.TxnWithdrawal},
	{4, model.TxnSharePurchase},
	{5, model.TxnFine},
}

// Format returns the parser name.
func (p *PassbookParser) Format() string { return "passbook" }

// Parse reads a passbook sheet. The first row is a header.
func (p *PassbookParser) Parse(r io.Reader) ([]transactions.RecordParams, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = passbookNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading passbook CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var out []transactions.RecordParams
	for i, rec := range records[1:] {
		date, err := time.Parse(passbookDateFormat, strings.TrimSpace(rec[passbookColDate]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[passbookColDate], err)
		}
		member := strings.TrimSpace(rec[passbookColMember])
		for _, c := range passbookColumns {
			raw := strings.TrimSpace(rec[c.col])
			if raw == "" {
				continue
			}
			amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing %s amount %q: %w", i+2, c.typ, raw, err)
			}
			if amount.IsZero() {
				continue
			}
			out = append(out, transactions.RecordParams{
				Date:        date,
				Type:        c.typ,
				Amount:      amount,
				MemberID:    member,
				Description: "passbook " + date.Format("2006-01-02"),
			})
		}
	}
	return out, nil
}
