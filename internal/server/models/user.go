// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/validation"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

// User is a registered account. Username is the primary key and never
// changes after creation.
type User struct {
	Username     string          `db:"username" json:"username"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"password_hash"`
	DateOfBirth  *timex.Date     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	BankBalance  decimal.Decimal `db:"bank_balance" json:"bank_balance"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Age returns the age on today, or nil when the date of birth is unknown.
func (u *User) Age(today timex.Date) *int {
	if u.DateOfBirth == nil {
		return nil
	}
	age := validation.Age(*u.DateOfBirth, today)
	return &age
}

// IsAdult is false when the date of birth is unknown.
func (u *User) IsAdult(today timex.Date) bool {
	age := u.Age(today)
	return age != nil && *age >= validation.AdultAge
}

// Clone returns a deep copy so stores can hand out values callers may mutate.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		c.DateOfBirth = &dob
	}
	return &c
}
