package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of cash movement a transaction records.
type TransactionType string

const (
	TxnDeposit          TransactionType = "DEPOSIT"
	TxnWithdrawal       TransactionType = "WITHDRAWAL"
	TxnLoanDisbursement TransactionType = "LOAN_DISBURSEMENT"
	TxnLoanRepayment    TransactionType = "LOAN_REPAYMENT"
	TxnSharePurchase    TransactionType = "SHARE_PURCHASE"
	TxnIncome           TransactionType = "INCOME"
	TxnExpense          TransactionType = "EXPENSE"
	TxnFine             TransactionType = "FINE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxnDeposit, TxnWithdrawal, TxnLoanDisbursement, TxnLoanRepayment,
		TxnSharePurchase, TxnIncome, TxnExpense, TxnFine:
		return true
	}
	return false
}

// CashIn reports whether the transaction brings cash into the cooperative.
func (t TransactionType) CashIn() bool {
	switch t {
	case TxnDeposit, TxnLoanRepayment, TxnSharePurchase, TxnIncome, TxnFine:
		return true
	}
	return false
}

// MemberBound reports whether the transaction must reference a member.
func (t TransactionType) MemberBound() bool {
	switch t {
	case TxnDeposit, TxnWithdrawal, TxnLoanDisbursement, TxnLoanRepayment, TxnSharePurchase:
		return true
	}
	return false
}

// Transaction is a single recorded cash movement. Immutable once recorded.
type Transaction struct {
	ID          string
	Date        time.Time
	Type        TransactionType
	Category    string // optional account code for INCOME/EXPENSE
	Amount      decimal.Decimal
	MemberID    string
	LoanID      string
	Description string
	ReceiptID   string
	RecordedBy  string
}
