package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a member's role in the cooperative.
type Role string

const (
	RoleMember    Role = "member"
	RoleOfficer   Role = "officer"
	RoleSecretary Role = "secretary"
	RoleTreasurer Role = "treasurer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleOfficer, RoleSecretary, RoleTreasurer, RoleAdmin:
		return true
	}
	return false
}

// Member holds a member's share and savings running balances.
type Member struct {
	ID             string
	Name           string
	Role           Role
	ShareBalance   decimal.Decimal
	SavingsBalance decimal.Decimal
	JoinedAt       time.Time
	Active         bool
}
