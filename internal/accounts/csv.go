package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

const (
	numFields   = 6
	colCode     = 0
	colName     = 1
	colCategory = 2
	colBalance  = 3
	colDesc     = 4
	colDeleted  = 5
)

var header = []string{"account_code", "account_name", "category", "balance", "description", "deleted"}

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colCategory] = string(acct.Category)
	row[colBalance] = acct.Balance.StringFixed(2)
	row[colDesc] = acct.Description
	if acct.Deleted {
		row[colDeleted] = "true"
	}
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	category := model.Category(record[colCategory])
	if !category.Valid() {
		return model.Account{}, fmt.Errorf("invalid category %q", record[colCategory])
	}

	balance := decimal.Zero
	if record[colBalance] != "" {
		var err error
		balance, err = decimal.NewFromString(record[colBalance])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
		}
	}

	var deleted bool
	if record[colDeleted] != "" {
		var err error
		deleted, err = strconv.ParseBool(record[colDeleted])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing deleted %q: %w", record[colDeleted], err)
		}
	}

	return model.Account{
		Code:        record[colCode],
		Name:        record[colName],
		Category:    category,
		Balance:     balance,
		Description: record[colDesc],
		Deleted:     deleted,
	}, nil
}
