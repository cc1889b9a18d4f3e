package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

// TrialBalanceRow is one line of a trial balance.
type TrialBalanceRow struct {
	Code   string
	Name   string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// TrialBalanceReport totals debit-normal against credit-normal balances.
type TrialBalanceReport struct {
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Difference  decimal.Decimal // debit - credit
	Balanced    bool
}

// TrialBalance lists each active account on its normal side, plus the member
// and loan sub-ledgers, and checks that debits equal credits.
func TrialBalance(accounts []model.Account, members []model.Member, loans []model.Loan, tol Tolerance) TrialBalanceReport {
	var r TrialBalanceReport
	r.TotalDebit, r.TotalCredit = decimal.Zero, decimal.Zero

	add := func(code, name string, balance decimal.Decimal, debitNormal bool) {
		row := TrialBalanceRow{Code: code, Name: name, Debit: decimal.Zero, Credit: decimal.Zero}
		// A negative balance lands on the opposite side.
		if debitNormal != balance.IsNegative() {
			row.Debit = balance.Abs()
		} else {
			row.Credit = balance.Abs()
		}
		r.TotalDebit = r.TotalDebit.Add(row.Debit)
		r.TotalCredit = r.TotalCredit.Add(row.Credit)
		r.Rows = append(r.Rows, row)
	}

	for _, a := range accounts {
		if a.Deleted {
			continue
		}
		add(a.Code, a.Name, a.Balance, a.Category.DebitNormal())
	}

	loansOut, shares, savings := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range loans {
		loansOut = loansOut.Add(l.RemainingBalance)
	}
	for _, m := range members {
		shares = shares.Add(m.ShareBalance)
		savings = savings.Add(m.SavingsBalance)
	}
	add("", "Loans receivable", loansOut, true)
	add("", "Member savings", savings, false)
	add("", "Member shares", shares, false)

	r.Difference = r.TotalDebit.Sub(r.TotalCredit)
	r.Balanced = tol.Within(r.Difference)
	return r
}
