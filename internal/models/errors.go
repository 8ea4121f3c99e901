package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// The domain error set. Callers branch with errors.Is / errors.As; each
// variant carries the fields a caller needs to explain the failure.
var (
	// ErrInvalidAmount rejects non-positive deposit, withdrawal and
	// repayment amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNoLoan is returned for loan operations on an account without a
	// loan record.
	ErrNoLoan = errors.New("no loan taken")

	// ErrNoApplication is returned when approving or rejecting a loan
	// application that does not exist.
	ErrNoApplication = errors.New("no application found for this account")
)

// AccountNotFoundError signals an unknown account number.
type AccountNotFoundError struct {
	Number int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %d not found", e.Number)
}

// InactiveAccountError signals an operation attempted on a closed account.
type InactiveAccountError struct {
	Number int64
}

func (e *InactiveAccountError) Error() string {
	return fmt.Sprintf("account %d is not active", e.Number)
}

// InsufficientFundsError signals a withdrawal that exceeds the balance.
type InsufficientFundsError struct {
	Balance decimal.Decimal
	Amount  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, requested %s", e.Balance, e.Amount)
}

// AgeRestrictionError signals account creation below the minimum age.
type AgeRestrictionError struct {
	Age int
}

func (e *AgeRestrictionError) Error() string {
	return fmt.Sprintf("age must be 18 or above to create an account (provided age: %d)", e.Age)
}

// LimitExceededError signals a breach of the daily cumulative cap for an
// operation kind. Attempted is today's total including the rejected request.
type LimitExceededError struct {
	Kind      OpKind
	Limit     decimal.Decimal
	Attempted decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily %s limit of %s exceeded (attempted total %s)", e.Kind, e.Limit, e.Attempted)
}

// ValidationError carries an expected user mistake: empty name, invalid
// account type, tenure outside 3/4 years, principal over the type cap and
// the like. The reason is safe to show to the caller as guidance.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
