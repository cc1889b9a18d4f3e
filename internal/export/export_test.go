package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/dividend"
	"github.com/coopbooks/coopbooks/internal/loans"
	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/reconcile"
	"github.com/coopbooks/coopbooks/internal/reports"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSheet() reports.BalanceSheetReport {
	accounts := []model.Account{
		{Code: "1010", Name: "Cash on Hand", Category: model.CategoryAsset, Balance: dec("1500")},
		{Code: "4010", Name: "Loan Interest Income", Category: model.CategoryRevenue, Balance: dec("100")},
	}
	members := []model.Member{{ID: "M-0001", ShareBalance: dec("1000"), SavingsBalance: dec("400")}}
	return reports.BalanceSheet(accounts, members, nil, reconcile.NewTolerance(dec("1")))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "table": FormatTable, "CSV": FormatCSV, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestBalanceSheet_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, BalanceSheet(sampleSheet()), FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "code", "name", "amount"}, records[0])
	assert.Contains(t, records, []string{"assets", "1010", "Cash on Hand", "1500.00"})
	assert.Contains(t, records, []string{"assets", "", "Total assets", "1500.00"})
	assert.Contains(t, records, []string{"liabilities", "", "Member savings", "400.00"})
	assert.Contains(t, records, []string{"equity", "", "Current period surplus", "100.00"})
	assert.Contains(t, records, []string{"check", "", "Variance", "0.00"})
}

func TestBalanceSheet_TextNotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, BalanceSheet(sampleSheet()), FormatTable))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Balance Sheet\n"))
	assert.Contains(t, out, "Balance sheet: balanced (variance 0.00)")

	r := sampleSheet()
	r.IsBalanced = false
	r.Variance = dec("25")
	assert.Equal(t, []string{"Balance sheet: OUT OF BALANCE by 25.00"}, BalanceSheet(r).Notes)
}

func TestTrialBalance_JSON(t *testing.T) {
	tb := reconcile.TrialBalance([]model.Account{
		{Code: "1010", Name: "Cash", Category: model.CategoryAsset, Balance: dec("300")},
		{Code: "4010", Name: "Interest", Category: model.CategoryRevenue, Balance: dec("300")},
	}, nil, nil, reconcile.Exact)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, TrialBalance(tb), FormatJSON))

	var got struct {
		Title string              `json:"title"`
		Rows  []map[string]string `json:"rows"`
		Notes []string            `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Trial Balance", got.Title)
	assert.Equal(t, map[string]string{"code": "1010", "name": "Cash", "debit": "300.00", "credit": "0.00"}, got.Rows[0])
	last := got.Rows[len(got.Rows)-1]
	assert.Equal(t, "300.00", last["debit"])
	assert.Equal(t, "300.00", last["credit"])
	assert.Equal(t, []string{"Trial balance: balanced (variance 0.00)"}, got.Notes)
}

func TestDividends(t *testing.T) {
	members := []model.Member{{ID: "M-0001", Name: "Amina", ShareBalance: dec("10000")}}
	rates := dividend.Rates{DividendRate: dec("10"), AvgReturnRate: dec("10"), InterestShare: dividend.DefaultInterestShare}
	d := dividend.Calculate(members, nil, rates, dec("500"))

	tbl := Dividends(d)
	assert.Equal(t, []string{"M-0001", "Amina", "10000.00", "0.00", "1000.00", "0.00", "1000.00"}, tbl.Rows[0])
	assert.Equal(t, "1000.00", tbl.Rows[1][6])
	require.Len(t, tbl.Notes, 1)
	assert.Contains(t, tbl.Notes[0], "WARNING")
}

func TestCashCount(t *testing.T) {
	counts, err := reconcile.ParseCounts([]string{"100=3", "0.5=4"})
	require.NoError(t, err)
	res := reconcile.Check(counts, dec("302"), reconcile.Exact)

	tbl := CashCount(res)
	assert.Equal(t, []string{"100", "3", "300.00"}, tbl.Rows[0])
	assert.Equal(t, []string{"0.5", "4", "2.00"}, tbl.Rows[1])
	assert.Equal(t, []string{"variance", "", "0.00"}, tbl.Rows[len(tbl.Rows)-1])
	assert.Equal(t, "Cash count: balanced (variance 0.00)", tbl.Notes[0])
}

func TestScheduleTotals(t *testing.T) {
	tbl := Schedule(loans.Schedule(dec("1200"), dec("12"), 3))
	require.Len(t, tbl.Rows, 4)
	total := tbl.Rows[3]
	assert.Equal(t, "total", total[0])
	assert.Equal(t, "1200.00", total[1])
}

func TestRepaymentSplit(t *testing.T) {
	tbl := RepaymentSplit(loans.Split(dec("1000"), dec("12"), dec("1500")))
	assert.Contains(t, tbl.Rows, []string{"overpayment", "490.00"})
	assert.Contains(t, tbl.Rows, []string{"balance after", "0.00"})
}
