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

// BatchParser reads the native batch layout:
//
//	date,type,amount,member_id,loan_id,category,description,receipt_id,recorded_by
//
// Dates are YYYY-MM-DD and types are the transaction type names.
type BatchParser struct{}

const (
	batchDateFormat = "2006-01-02"
	batchNumFields  = 9
	batchColDate    = 0
	batchColType    = 1
	batchColAmount  = 2
	batchColMember  = 3
	batchColLoan    = 4
	batchColCat     = 5
	batchColDesc    = 6
	batchColReceipt = 7
	batchColBy      = 8
)

// Format returns the parser name.
func (p *BatchParser) Format() string { return "coopbooks" }

// Parse reads a batch CSV. The first row is a header.
func (p *BatchParser) Parse(r io.Reader) ([]transactions.RecordParams, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = batchNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading batch CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var out []transactions.RecordParams
	for i, rec := range records[1:] {
		params, err := parseBatchRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, params)
	}
	return out, nil
}

func parseBatchRow(rec []string) (transactions.RecordParams, error) {
	date, err := time.Parse(batchDateFormat, rec[batchColDate])
	if err != nil {
		return transactions.RecordParams{}, fmt.Errorf("parsing date %q: %w", rec[batchColDate], err)
	}

	typ := model.TransactionType(strings.ToUpper(strings.TrimSpace(rec[batchColType])))
	if !typ.Valid() {
		return transactions.RecordParams{}, fmt.Errorf("unknown transaction type %q", rec[batchColType])
	}

	amount, err := decimal.NewFromString(rec[batchColAmount])
	if err != nil {
		return transactions.RecordParams{}, fmt.Errorf("parsing amount %q: %w", rec[batchColAmount], err)
	}

	return transactions.RecordParams{
		Date:        date,
		Type:        typ,
		Amount:      amount,
		MemberID:    rec[batchColMember],
		LoanID:      rec[batchColLoan],
		Category:    rec[batchColCat],
		Description: rec[batchColDesc],
		ReceiptID:   rec[batchColReceipt],
		RecordedBy:  rec[batchColBy],
	}, nil
}
