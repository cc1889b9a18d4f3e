package export

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/dividend"
	"github.com/coopbooks/coopbooks/internal/reconcile"
	"github.com/coopbooks/coopbooks/internal/reports"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func balanceNote(label string, ok bool, variance decimal.Decimal) string {
	if ok {
		return fmt.Sprintf("%s: balanced (variance %s)", label, money(variance))
	}
	return fmt.Sprintf("%s: OUT OF BALANCE by %s", label, money(variance))
}

// BalanceSheet lays out a balance sheet as section, code, name, amount rows
// with a total row after each section.
func BalanceSheet(r reports.BalanceSheetReport) Table {
	t := Table{
		Title:   "Balance Sheet",
		Columns: []string{"section", "code", "name", "amount"},
	}
	section := func(name string, lines []reports.Line, total decimal.Decimal) {
		for _, l := range lines {
			t.Rows = append(t.Rows, []string{name, l.Code, l.Name, money(l.Amount)})
		}
		t.Rows = append(t.Rows, []string{name, "", "Total " + name, money(total)})
	}
	section("assets", r.Assets, r.TotalAssets)
	section("liabilities", r.Liabilities, r.TotalLiabilities)
	section("equity", r.Equity, r.TotalEquity)
	t.Rows = append(t.Rows,
		[]string{"check", "", "Liabilities and equity", money(r.TotalLiabilities.Add(r.TotalEquity))},
		[]string{"check", "", "Variance", money(r.Variance)},
	)
	t.Notes = []string{balanceNote("Balance sheet", r.IsBalanced, r.Variance)}
	return t
}

// IncomeStatement lays out revenue and expense accounts, then the grouped
// income and expense transactions.
func IncomeStatement(r reports.IncomeStatementReport) Table {
	t := Table{
		Title:   "Income Statement",
		Columns: []string{"section", "code", "name", "count", "amount"},
	}
	for _, l := range r.Revenue {
		t.Rows = append(t.Rows, []string{"revenue", l.Code, l.Name, "", money(l.Amount)})
	}
	t.Rows = append(t.Rows, []string{"revenue", "", "Total revenue", "", money(r.TotalRevenue)})
	for _, l := range r.Expenses {
		t.Rows = append(t.Rows, []string{"expenses", l.Code, l.Name, "", money(l.Amount)})
	}
	t.Rows = append(t.Rows,
		[]string{"expenses", "", "Total expenses", "", money(r.TotalExpenses)},
		[]string{"result", "", "Net profit", "", money(r.NetProfit)},
	)
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{"transactions", row.Category, string(row.Type), strconv.Itoa(row.Count), money(row.Total)})
	}
	t.Notes = []string{fmt.Sprintf("Recorded income %s, recorded expenses %s", money(r.PeriodIncome), money(r.PeriodExpense))}
	return t
}

// TrialBalance lays out debit and credit columns with a totals row.
func TrialBalance(r reconcile.TrialBalanceReport) Table {
	t := Table{
		Title:   "Trial Balance",
		Columns: []string{"code", "name", "debit", "credit"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{row.Code, row.Name, money(row.Debit), money(row.Credit)})
	}
	t.Rows = append(t.Rows, []string{"", "Total", money(r.TotalDebit), money(r.TotalCredit)})
	t.Notes = []string{balanceNote("Trial balance", r.Balanced, r.Difference)}
	return t
}

// Dividends lays out one payout row per member and a totals row.
func Dividends(d dividend.Distribution) Table {
	t := Table{
		Title:   fmt.Sprintf("Dividend Distribution (dividend %s%%, refund %s%%)", d.Rates.DividendRate.String(), d.Rates.AvgReturnRate.String()),
		Columns: []string{"member_id", "name", "share_balance", "interest_paid", "dividend", "refund", "total"},
	}
	for _, p := range d.Rows {
		t.Rows = append(t.Rows, []string{
			p.MemberID, p.Name, money(p.ShareBalance), money(p.InterestPaid),
			money(p.DividendAmount), money(p.RefundAmount), money(p.TotalPayout),
		})
	}
	t.Rows = append(t.Rows, []string{"", "Total", "", "", money(d.TotalDividend), money(d.TotalRefund), money(d.TotalDistribution)})

	note := fmt.Sprintf("Payout ratio %s%% of net profit %s", d.PayoutRatio.StringFixed(2), money(d.NetProfit))
	if d.ExceedsProfit {
		note += " (WARNING: distribution exceeds net profit)"
	}
	t.Notes = []string{note}
	return t
}

// CashCount lays out a physical cash count against the books.
func CashCount(r reconcile.Result) Table {
	t := Table{
		Title:   "Cash Reconciliation",
		Columns: []string{"denomination", "count", "subtotal"},
	}
	for _, c := range r.Counts {
		t.Rows = append(t.Rows, []string{c.Denomination.String(), strconv.FormatInt(c.Count, 10), money(c.Subtotal())})
	}
	t.Rows = append(t.Rows,
		[]string{"physical total", "", money(r.PhysicalTotal)},
		[]string{"system net cash", "", money(r.SystemNetCash)},
		[]string{"variance", "", money(r.Variance)},
	)
	t.Notes = []string{balanceNote("Cash count", r.Balanced, r.Variance)}
	return t
}
