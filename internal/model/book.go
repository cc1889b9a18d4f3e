package model

// Book is a snapshot of everything the calculators read.
type Book struct {
	Accounts     []Account
	Members      []Member
	Loans        []Loan
	Transactions []Transaction
}
