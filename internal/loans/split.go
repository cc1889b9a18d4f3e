package loans

import "github.com/shopspring/decimal"

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// RepaymentSplit is the result of applying one cash payment to a loan.
// Principal is capped at the balance actually owed; anything beyond it is
// reported as Overpayment so the caller can credit it back to the member.
type RepaymentSplit struct {
	Tendered        decimal.Decimal
	MonthlyInterest decimal.Decimal
	Interest        decimal.Decimal
	Principal       decimal.Decimal
	Overpayment     decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
}

// MonthlyInterest returns one month of simple interest on balance at an
// annual percentage rate, rounded to cents.
func MonthlyInterest(balance, annualRate decimal.Decimal) decimal.Decimal {
	return balance.Mul(annualRate).Div(hundred).Div(monthsInYear).Round(2)
}

// Split divides a tendered amount into interest and principal portions.
// Interest is charged for a single month only; overdue months are not accrued.
// The interest figure is MonthlyInterest, which is rounded to cents and so
// can differ from the exact remaining*rate/100/12 by up to half a cent.
func Split(remaining, annualRate, tendered decimal.Decimal) RepaymentSplit {
	monthly := MonthlyInterest(remaining, annualRate)
	s := RepaymentSplit{
		Tendered:        tendered,
		MonthlyInterest: monthly,
		Interest:        decimal.Zero,
		Principal:       decimal.Zero,
		Overpayment:     decimal.Zero,
		BalanceBefore:   remaining,
		BalanceAfter:    remaining,
	}
	if !tendered.IsPositive() {
		return s
	}

	s.Interest = decimal.Min(tendered, decimal.Max(monthly, decimal.Zero))
	principal := decimal.Max(decimal.Zero, tendered.Sub(s.Interest))

	owed := decimal.Max(remaining, decimal.Zero)
	s.Principal = decimal.Min(principal, owed)
	s.Overpayment = principal.Sub(s.Principal)
	s.BalanceAfter = decimal.Max(decimal.Zero, remaining.Sub(principal))
	return s
}
