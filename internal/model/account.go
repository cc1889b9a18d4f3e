package model

import "github.com/shopspring/decimal"

// Category classifies accounts in the chart of accounts.
type Category string

const (
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
	CategoryRevenue   Category = "revenue"
	CategoryExpense   Category = "expense"
)

// Categories lists every category in balance-sheet order.
var Categories = []Category{
	CategoryAsset,
	CategoryLiability,
	CategoryEquity,
	CategoryRevenue,
	CategoryExpense,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryRevenue, CategoryExpense:
		return true
	}
	return false
}

// DebitNormal reports whether balances in this category grow on the debit side.
func (c Category) DebitNormal() bool {
	return c == CategoryAsset || c == CategoryExpense
}

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	Code        string
	Name        string
	Category    Category
	Balance     decimal.Decimal
	Description string
	Deleted     bool // soft delete; kept on disk, hidden from reports
}
