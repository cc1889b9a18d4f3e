package reports

import (
	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
	"github.com/coopbooks/coopbooks/internal/reconcile"
)

// Line is one named amount on a report.
type Line struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// BalanceSheetReport is the statement of financial position plus the
// profit figures that feed its equity side.
type BalanceSheetReport struct {
	Assets      []Line
	Liabilities []Line
	Equity      []Line

	CashAssets        decimal.Decimal // asset accounts
	LoansReceivable   decimal.Decimal
	LiabilityAccounts decimal.Decimal
	MemberSavings     decimal.Decimal
	EquityAccounts    decimal.Decimal
	MemberShares      decimal.Decimal

	Revenue   decimal.Decimal
	Expenses  decimal.Decimal
	NetProfit decimal.Decimal

	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal

	// Variance is assets - (liabilities + equity). It is reported, not enforced.
	Variance   decimal.Decimal
	IsBalanced bool
}

// Synthetic line names for the member and loan sub-ledgers.
const (
	LineLoansReceivable = "Loans receivable"
	LineMemberSavings   = "Member savings"
	LineMemberShares    = "Member shares"
	LineCurrentSurplus  = "Current period surplus"
)

// CategoryTotals sums active account balances per category.
func CategoryTotals(accounts []model.Account) map[model.Category]decimal.Decimal {
	totals := make(map[model.Category]decimal.Decimal, len(model.Categories))
	for _, c := range model.Categories {
		totals[c] = decimal.Zero
	}
	for _, a := range accounts {
		if a.Deleted {
			continue
		}
		totals[a.Category] = totals[a.Category].Add(a.Balance)
	}
	return totals
}

// BalanceSheet aggregates accounts, members, and loans into a balance sheet.
// Negative balances are summed as given.
func BalanceSheet(accounts []model.Account, members []model.Member, loans []model.Loan, tol reconcile.Tolerance) BalanceSheetReport {
	totals := CategoryTotals(accounts)

	var r BalanceSheetReport
	r.CashAssets = totals[model.CategoryAsset]
	r.LiabilityAccounts = totals[model.CategoryLiability]
	r.EquityAccounts = totals[model.CategoryEquity]
	r.Revenue = totals[model.CategoryRevenue]
	r.Expenses = totals[model.CategoryExpense]
	r.NetProfit = r.Revenue.Sub(r.Expenses)

	r.LoansReceivable = decimal.Zero
	for _, l := range loans {
		r.LoansReceivable = r.LoansReceivable.Add(l.RemainingBalance)
	}
	r.MemberShares, r.MemberSavings = decimal.Zero, decimal.Zero
	for _, m := range members {
		r.MemberShares = r.MemberShares.Add(m.ShareBalance)
		r.MemberSavings = r.MemberSavings.Add(m.SavingsBalance)
	}

	for _, a := range accounts {
		if a.Deleted {
			continue
		}
		line := Line{Code: a.Code, Name: a.Name, Amount: a.Balance}
		switch a.Category {
		case model.CategoryAsset:
			r.Assets = append(r.Assets, line)
		case model.CategoryLiability:
			r.Liabilities = append(r.Liabilities, line)
		case model.CategoryEquity:
			r.Equity = append(r.Equity, line)
		}
	}
	r.Assets = append(r.Assets, Line{Name: LineLoansReceivable, Amount: r.LoansReceivable})
	r.Liabilities = append(r.Liabilities, Line{Name: LineMemberSavings, Amount: r.MemberSavings})
	r.Equity = append(r.Equity,
		Line{Name: LineMemberShares, Amount: r.MemberShares},
		Line{Name: LineCurrentSurplus, Amount: r.NetProfit},
	)

	r.TotalAssets = r.CashAssets.Add(r.LoansReceivable)
	r.TotalLiabilities = r.LiabilityAccounts.Add(r.MemberSavings)
	r.TotalEquity = r.EquityAccounts.Add(r.MemberShares).Add(r.NetProfit)
	r.Variance = r.TotalAssets.Sub(r.TotalLiabilities.Add(r.TotalEquity))
	r.IsBalanced = tol.Within(r.Variance)
	return r
}
