package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

// IncomeExpenseRow groups period transactions by type and category.
type IncomeExpenseRow struct {
	Type     model.TransactionType
	Category string
	Count    int
	Total    decimal.Decimal
}

// IncomeStatementReport is revenue against expenses for the books.
type IncomeStatementReport struct {
	Revenue       []Line
	Expenses      []Line
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
	Rows          []IncomeExpenseRow
	PeriodIncome  decimal.Decimal // INCOME + FINE transactions
	PeriodExpense decimal.Decimal // EXPENSE transactions
}

// IncomeStatement lists revenue and expense accounts and summarizes the
// INCOME, FINE, and EXPENSE transactions in txns.
func IncomeStatement(accounts []model.Account, txns []model.Transaction) IncomeStatementReport {
	r := IncomeStatementReport{
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
		PeriodIncome:  decimal.Zero,
		PeriodExpense: decimal.Zero,
	}

	for _, a := range accounts {
		if a.Deleted {
			continue
		}
		line := Line{Code: a.Code, Name: a.Name, Amount: a.Balance}
		switch a.Category {
		case model.CategoryRevenue:
			r.Revenue = append(r.Revenue, line)
			r.TotalRevenue = r.TotalRevenue.Add(a.Balance)
		case model.CategoryExpense:
			r.Expenses = append(r.Expenses, line)
			r.TotalExpenses = r.TotalExpenses.Add(a.Balance)
		}
	}
	r.NetProfit = r.TotalRevenue.Sub(r.TotalExpenses)

	type key struct {
		typ      model.TransactionType
		category string
	}
	groups := make(map[key]*IncomeExpenseRow)
	for _, txn := range txns {
		switch txn.Type {
		case model.TxnIncome, model.TxnFine:
			r.PeriodIncome = r.PeriodIncome.Add(txn.Amount)
		case model.TxnExpense:
			r.PeriodExpense = r.PeriodExpense.Add(txn.Amount)
		default:
			continue
		}
		k := key{txn.Type, txn.Category}
		row, ok := groups[k]
		if !ok {
			row = &IncomeExpenseRow{Type: txn.Type, Category: txn.Category, Total: decimal.Zero}
			groups[k] = row
		}
		row.Count++
		row.Total = row.Total.Add(txn.Amount)
	}

	for _, row := range groups {
		r.Rows = append(r.Rows, *row)
	}
	sort.Slice(r.Rows, func(i, j int) bool {
		if r.Rows[i].Type != r.Rows[j].Type {
			return r.Rows[i].Type < r.Rows[j].Type
		}
		return r.Rows[i].Category < r.Rows[j].Category
	})
	return r
}
