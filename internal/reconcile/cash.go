package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coopbooks/coopbooks/internal/model"
)

// CashCount is one denomination line of a physical cash count.
type CashCount struct {
	Denomination decimal.Decimal
	Count        int64
}

// Subtotal is Denomination * Count.
func (c CashCount) Subtotal() decimal.Decimal {
	return c.Denomination.Mul(decimal.NewFromInt(c.Count))
}

// Result compares a physical count with the books.
type Result struct {
	Counts        []CashCount
	PhysicalTotal decimal.Decimal
	SystemNetCash decimal.Decimal
	Variance      decimal.Decimal // physical - system
	Balanced      bool
}

// PhysicalTotal sums denomination * count over counts.
func PhysicalTotal(counts []CashCount) decimal.Decimal {
	total := decimal.Zero
	for _, c := range counts {
		total = total.Add(c.Subtotal())
	}
	return total
}

// SystemNetCash is cash received minus cash paid out across txns.
func SystemNetCash(txns []model.Transaction) decimal.Decimal {
	net := decimal.Zero
	for _, txn := range txns {
		if txn.Type.CashIn() {
			net = net.Add(txn.Amount)
		} else {
			net = net.Sub(txn.Amount)
		}
	}
	return net
}

// Check compares a physical cash count with the system figure.
func Check(counts []CashCount, systemNetCash decimal.Decimal, tol Tolerance) Result {
	physical := PhysicalTotal(counts)
	variance := physical.Sub(systemNetCash)
	return Result{
		Counts:        counts,
		PhysicalTotal: physical,
		SystemNetCash: systemNetCash,
		Variance:      variance,
		Balanced:      tol.Within(variance),
	}
}

// ParseCounts parses "DENOM=COUNT" pairs such as "1000=3". Repeated
// denominations are merged; the result is ordered largest note first.
func ParseCounts(pairs []string) ([]CashCount, error) {
	merged := make(map[string]CashCount)
	for _, p := range pairs {
		denomStr, countStr, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("cash count %q: expected DENOM=COUNT", p)
		}
		denom, err := decimal.NewFromString(strings.TrimSpace(denomStr))
		if err != nil {
			return nil, fmt.Errorf("cash count %q: parsing denomination: %w", p, err)
		}
		if !denom.IsPositive() {
			return nil, fmt.Errorf("cash count %q: denomination must be positive", p)
		}
		count, err := strconv.ParseInt(strings.TrimSpace(countStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cash count %q: parsing count: %w", p, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("cash count %q: count cannot be negative", p)
		}
		key := denom.String()
		c := merged[key]
		c.Denomination = denom
		c.Count += count
		merged[key] = c
	}

	out := make([]CashCount, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denomination.GreaterThan(out[j].Denomination) })
	return out, nil
}
