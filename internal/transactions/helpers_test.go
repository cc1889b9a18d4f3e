package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

type mockSet map[string]bool

func (m mockSet) Exists(key string) bool { return m[key] }

func newMockSet(keys ...string) mockSet {
	m := make(mockSet, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
