package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// AccountNumberMin and AccountNumberMax bound the six-digit account numbers.
	AccountNumberMin = 100000
	AccountNumberMax = 999999

	// NameMaxLength caps the holder name, counted in characters.
	NameMaxLength = 120

	accountNumberLength = 6
	taxIDLength         = 11
)

// Account is a customer account holding a single balance.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	TaxID         string          `json:"tax_id"`
	Balance       decimal.Decimal `json:"balance"`
	OpeningDate   time.Time       `json:"opening_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CanDebit reports whether the balance covers value.
func (a *Account) CanDebit(value decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(value)
}

// Debit subtracts value from the balance.
func (a *Account) Debit(value decimal.Decimal) {
	a.Balance = a.Balance.Sub(value)
}

// Credit adds value to the balance.
func (a *Account) Credit(value decimal.Decimal) {
	a.Balance = a.Balance.Add(value)
}

// OpeningDateOf truncates t to its UTC calendar date.
func OpeningDateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeName trims the holder name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// IsValidAccountNumber reports whether s is exactly six ASCII digits.
func IsValidAccountNumber(s string) bool {
	return len(s) == accountNumberLength && isDigits(s)
}

// IsValidTaxID reports whether s is exactly eleven ASCII digits.
func IsValidTaxID(s string) bool {
	return len(s) == taxIDLength && isDigits(s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
