// Package dividend computes the year-end distribution to members: a dividend
// on share capital plus a patronage refund on loan interest paid.
package dividend

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

var hundred = decimal.NewFromInt(100)

// DefaultInterestShare is the fraction of each loan repayment counted as
// interest when estimating what a member paid in interest.
var DefaultInterestShare = decimal.RequireFromString("0.15")

// Rates are the inputs of a distribution. DividendRate and AvgReturnRate are
// percentages; InterestShare is a fraction.
type Rates struct {
	DividendRate  decimal.Decimal
	AvgReturnRate decimal.Decimal
	InterestShare decimal.Decimal
}

// MemberPayout is one row of the dividend table.
type MemberPayout struct {
	MemberID       string
	Name           string
	ShareBalance   decimal.Decimal
	InterestPaid   decimal.Decimal
	DividendAmount decimal.Decimal
	RefundAmount   decimal.Decimal
	TotalPayout    decimal.Decimal
}

// Distribution is the full dividend table with grand totals.
type Distribution struct {
	Rates             Rates
	Rows              []MemberPayout
	TotalDividend     decimal.Decimal
	TotalRefund       decimal.Decimal
	TotalDistribution decimal.Decimal
	NetProfit         decimal.Decimal
	PayoutRatio       decimal.Decimal // percent of net profit, 0 when there is no profit
	ExceedsProfit     bool
}

// InterestPaid estimates the interest a member paid as InterestShare of each
// of their LOAN_REPAYMENT transactions.
func InterestPaid(memberID string, txns []model.Transaction, share decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		if txn.MemberID == memberID && txn.Type == model.TxnLoanRepayment {
			total = total.Add(txn.Amount.Mul(share))
		}
	}
	return total
}

// ForMember computes one member's payout given the interest they paid.
func ForMember(m model.Member, interestPaid decimal.Decimal, rates Rates) MemberPayout {
	div := m.ShareBalance.Mul(rates.DividendRate).Div(hundred)
	refund := interestPaid.Mul(rates.AvgReturnRate).Div(hundred)
	return MemberPayout{
		MemberID:       m.ID,
		Name:           m.Name,
		ShareBalance:   m.ShareBalance,
		InterestPaid:   interestPaid,
		DividendAmount: div,
		RefundAmount:   refund,
		TotalPayout:    div.Add(refund),
	}
}

// Calculate builds the dividend table. Rows are ordered by member ID so the
// result does not depend on input order.
func Calculate(members []model.Member, txns []model.Transaction, rates Rates, netProfit decimal.Decimal) Distribution {
	paid := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.Type != model.TxnLoanRepayment || txn.MemberID == "" {
			continue
		}
		prev, ok := paid[txn.MemberID]
		if !ok {
			prev = decimal.Zero
		}
		paid[txn.MemberID] = prev.Add(txn.Amount.Mul(rates.InterestShare))
	}

	d := Distribution{
		Rates:             rates,
		TotalDividend:     decimal.Zero,
		TotalRefund:       decimal.Zero,
		TotalDistribution: decimal.Zero,
		NetProfit:         netProfit,
		PayoutRatio:       decimal.Zero,
	}
	for _, m := range members {
		interest, ok := paid[m.ID]
		if !ok {
			interest = decimal.Zero
		}
		row := ForMember(m, interest, rates)
		d.Rows = append(d.Rows, row)
		d.TotalDividend = d.TotalDividend.Add(row.DividendAmount)
		d.TotalRefund = d.TotalRefund.Add(row.RefundAmount)
	}
	sort.Slice(d.Rows, func(i, j int) bool { return d.Rows[i].MemberID < d.Rows[j].MemberID })

	d.TotalDistribution = d.TotalDividend.Add(d.TotalRefund)
	if netProfit.IsPositive() {
		d.PayoutRatio = d.TotalDistribution.Div(netProfit).Mul(hundred).Round(2)
	}
	// Compared unrounded so a payout a fraction of a cent over profit still counts.
	d.ExceedsProfit = netProfit.IsPositive() && d.TotalDistribution.GreaterThan(netProfit)
	return d
}
