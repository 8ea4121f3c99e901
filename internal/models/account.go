package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the wire format for every timestamp the bank persists.
const TimestampLayout = "2006-01-02 15:04:05"

// AccountType determines minimum balance and loan terms.
type AccountType string

const (
	AccountTypeSavings AccountType = "Savings"
	AccountTypeCurrent AccountType = "Current"
)

// ParseAccountType normalizes user input ("savings", "CURRENT", ...) into a
// valid account type. The second return value reports whether the input
// named a known type.
func ParseAccountType(s string) (AccountType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "savings":
		return AccountTypeSavings, true
	case "current":
		return AccountTypeCurrent, true
	}
	return "", false
}

// MinimumBalance is the opening-deposit floor for the account type. It is
// enforced at creation only; withdrawals may drop the balance below it.
func (t AccountType) MinimumBalance() decimal.Decimal {
	switch t {
	case AccountTypeSavings:
		return decimal.NewFromInt(500)
	case AccountTypeCurrent:
		return decimal.NewFromInt(1000)
	}
	return decimal.Zero
}

// LoanRate is the fixed annual simple-interest rate used when a loan is
// sanctioned directly, without an admin-chosen rate.
func (t AccountType) LoanRate() decimal.Decimal {
	switch t {
	case AccountTypeCurrent:
		return decimal.NewFromFloat(0.08)
	default:
		return decimal.NewFromFloat(0.06)
	}
}

// LoanLimit is the maximum principal that may be sanctioned for the type.
func (t AccountType) LoanLimit() decimal.Decimal {
	switch t {
	case AccountTypeSavings:
		return decimal.NewFromInt(1_000_000)
	case AccountTypeCurrent:
		return decimal.NewFromInt(2_500_000)
	}
	return decimal.Zero
}

// AccountStatus is the lifecycle state of an account. Closure flips the
// status; account records are never physically deleted.
type AccountStatus string

const (
	StatusActive   AccountStatus = "Active"
	StatusInactive AccountStatus = "Inactive"
)

// Account is the balance-bearing ledger record.
type Account struct {
	Number    int64           `json:"account_number"`
	Name      string          `json:"name"`
	Age       int             `json:"age"`
	Balance   decimal.Decimal `json:"balance"`
	Type      AccountType     `json:"account_type"`
	Status    AccountStatus   `json:"status"`
	CreatedAt string          `json:"created_at"`
	PIN       string          `json:"-"` // Not serialized
}

// IsActive reports whether the account accepts ledger operations.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Deposit increases the balance. The amount must be strictly positive.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount).Round(2)
	return nil
}

// Withdraw decreases the balance. The amount must be strictly positive and
// must not exceed the balance. The minimum-balance floor is deliberately not
// re-checked here; it is an opening condition only.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(a.Balance) {
		return &InsufficientFundsError{Balance: a.Balance, Amount: amount}
	}
	a.Balance = a.Balance.Sub(amount).Round(2)
	return nil
}

// BelowMinimumAfter is an advisory check: would withdrawing amount leave the
// balance under the type minimum? Callers may warn; the withdrawal itself is
// still legal.
func (a *Account) BelowMinimumAfter(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).LessThan(a.Type.MinimumBalance())
}

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ValidPIN reports whether s is a well-formed 4-digit PIN.
func ValidPIN(s string) bool {
	return pinPattern.MatchString(strings.TrimSpace(s))
}
