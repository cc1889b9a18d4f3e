package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/loans"
)

// RepaymentSplit lays out how one payment divides between interest and principal.
func RepaymentSplit(s loans.RepaymentSplit) Table {
	return Table{
		Title:   "Repayment Split",
		Columns: []string{"item", "amount"},
		Rows: [][]string{
			{"tendered", money(s.Tendered)},
			{"balance before", money(s.BalanceBefore)},
			{"monthly interest", money(s.MonthlyInterest)},
			{"interest", money(s.Interest)},
			{"principal", money(s.Principal)},
			{"overpayment", money(s.Overpayment)},
			{"balance after", money(s.BalanceAfter)},
		},
	}
}

// Schedule lays out a repayment plan with a totals row.
func Schedule(rows []loans.Installment) Table {
	t := Table{
		Title:   "Repayment Schedule",
		Columns: []string{"month", "principal", "interest", "payment", "balance"},
	}
	interest, principal := loans.TotalInterest(rows), decimal.Zero
	for _, r := range rows {
		principal = principal.Add(r.Principal)
		t.Rows = append(t.Rows, []string{strconv.Itoa(r.Month), money(r.Principal), money(r.Interest), money(r.Payment), money(r.BalanceAfter)})
	}
	t.Rows = append(t.Rows, []string{"total", money(principal), money(interest), money(principal.Add(interest)), ""})
	return t
}
