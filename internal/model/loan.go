package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanActive    LoanStatus = "active"
	LoanPaid      LoanStatus = "paid"
	LoanDefaulted LoanStatus = "defaulted"
)

// Loan is a member loan. 0 <= RemainingBalance <= PrincipalAmount.
type Loan struct {
	ID               string
	MemberID         string
	PrincipalAmount  decimal.Decimal
	RemainingBalance decimal.Decimal
	InterestRate     decimal.Decimal // annual percent
	TermMonths       int
	Status           LoanStatus
	GuarantorIDs     []string
	DisbursedAt      time.Time
}
