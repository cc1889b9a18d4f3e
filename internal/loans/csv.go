package loans

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

const (
	numFields     = 9
	dateFormat    = "2006-01-02"
	colID         = 0
	colMember     = 1
	colPrincipal  = 2
	colRemaining  = 3
	colRate       = 4
	colTerm       = 5
	colStatus     = 6
	colGuarantors = 7
	colDisbursed  = 8
)

var header = []string{"loan_id", "member_id", "principal_amount", "remaining_balance", "interest_rate", "term_months", "status", "guarantor_ids", "disbursed_at"}

// ReadLoans reads loans.csv.
func ReadLoans(r io.Reader) ([]model.Loan, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading loans CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var ls []model.Loan
	for i, rec := range records[1:] {
		l, err := UnmarshalLoan(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		ls = append(ls, l)
	}
	return ls, nil
}

// WriteLoans writes loans.csv.
func WriteLoans(w io.Writer, ls []model.Loan) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, l := range ls {
		if err := cw.Write(MarshalLoan(l)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalLoan converts a Loan to a CSV row.
func MarshalLoan(l model.Loan) []string {
	row := make([]string, numFields)
	row[colID] = l.ID
	row[colMember] = l.MemberID
	row[colPrincipal] = l.PrincipalAmount.StringFixed(2)
	row[colRemaining] = l.RemainingBalance.StringFixed(2)
	row[colRate] = l.InterestRate.String()
	row[colTerm] = strconv.Itoa(l.TermMonths)
	row[colStatus] = string(l.Status)
	row[colGuarantors] = strings.Join(l.GuarantorIDs, ";")
	if !l.DisbursedAt.IsZero() {
		row[colDisbursed] = l.DisbursedAt.Format(dateFormat)
	}
	return row
}

// UnmarshalLoan converts a CSV row to a Loan.
func UnmarshalLoan(record []string) (model.Loan, error) {
	if len(record) != numFields {
		return model.Loan{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	principal, err := decimal.NewFromString(record[colPrincipal])
	if err != nil {
		return model.Loan{}, fmt.Errorf("parsing principal_amount %q: %w", record[colPrincipal], err)
	}
	remaining, err := decimal.NewFromString(record[colRemaining])
	if err != nil {
		return model.Loan{}, fmt.Errorf("parsing remaining_balance %q: %w", record[colRemaining], err)
	}
	rate, err := decimal.NewFromString(record[colRate])
	if err != nil {
		return model.Loan{}, fmt.Errorf("parsing interest_rate %q: %w", record[colRate], err)
	}
	term, err := strconv.Atoi(record[colTerm])
	if err != nil {
		return model.Loan{}, fmt.Errorf("parsing term_months %q: %w", record[colTerm], err)
	}

	var guarantors []string
	if record[colGuarantors] != "" {
		guarantors = strings.Split(record[colGuarantors], ";")
	}

	var disbursed time.Time
	if record[colDisbursed] != "" {
		disbursed, err = time.Parse(dateFormat, record[colDisbursed])
		if err != nil {
			return model.Loan{}, fmt.Errorf("parsing disbursed_at %q: %w", record[colDisbursed], err)
		}
	}

	return model.Loan{
		ID:               record[colID],
		MemberID:         record[colMember],
		PrincipalAmount:  principal,
		RemainingBalance: remaining,
		InterestRate:     rate,
		TermMonths:       term,
		Status:           model.LoanStatus(record[colStatus]),
		GuarantorIDs:     guarantors,
		DisbursedAt:      disbursed,
	}, nil
}
