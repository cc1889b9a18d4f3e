package loans

import (
	"github.com/shopspring/decimal"
)

// Installment is one row of a repayment schedule.
type Installment struct {
	Month        int
	Principal    decimal.Decimal
	Interest     decimal.Decimal
	Payment      decimal.Decimal
	BalanceAfter decimal.Decimal
}

// Schedule returns an equal-principal, reducing-balance plan: each month pays
// principal/term plus one month of interest on the balance still owed. The
// last installment absorbs rounding so the balance ends at exactly zero.
func Schedule(principal, annualRate decimal.Decimal, termMonths int) []Installment {
	if termMonths <= 0 || !principal.IsPositive() {
		return nil
	}

	step := principal.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	balance := principal
	rows := make([]Installment, 0, termMonths)
	for m := 1; m <= termMonths; m++ {
		interest := MonthlyInterest(balance, annualRate)
		part := step
		if m == termMonths || part.GreaterThan(balance) {
			part = balance
		}
		balance = balance.Sub(part)
		rows = append(rows, Installment{
			Month:        m,
			Principal:    part,
			Interest:     interest,
			Payment:      part.Add(interest),
			BalanceAfter: balance,
		})
	}
	return rows
}

// TotalInterest sums the interest column of a schedule.
func TotalInterest(rows []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Interest)
	}
	return total
}
