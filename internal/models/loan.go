package models

import "github.com/shopspring/decimal"

// LoanStatus is the repayment state of a loan. A Cleared loan no longer
// blocks a fresh application.
type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "Active"
	LoanStatusCleared LoanStatus = "Cleared"
)

// Loan is a sanctioned simple-interest loan, keyed by account number. At
// most one non-cleared loan exists per account.
type Loan struct {
	AccountNumber int64           `json:"account_number"`
	Name          string          `json:"name"`
	Principal     decimal.Decimal `json:"principal"`
	Pending       decimal.Decimal `json:"pending"`
	Years         int             `json:"years"`
	Rate          decimal.Decimal `json:"rate"`
	Status        LoanStatus      `json:"status"`
}

// Outstanding reports whether the loan still blocks a new application.
func (l *Loan) Outstanding() bool {
	return l.Pending.GreaterThan(decimal.Zero) && l.Status != LoanStatusCleared
}

// LoanApplication is a pending request awaiting admin approval. At most one
// per account; a resubmission replaces the prior one.
type LoanApplication struct {
	AccountNumber int64           `json:"account_number"`
	Name          string          `json:"name"`
	Principal     decimal.Decimal `json:"principal"`
	Years         int             `json:"years"`
	RequestedAt   string          `json:"requested_at"`
}

// TotalPayable computes the simple-interest total P * (1 + r*t), rounded to
// currency precision. No compounding.
func TotalPayable(principal decimal.Decimal, years int, rate decimal.Decimal) decimal.Decimal {
	t := decimal.NewFromInt(int64(years))
	return principal.Mul(decimal.NewFromInt(1).Add(rate.Mul(t))).Round(2)
}

// MonthlyEMI is the flat equated monthly installment: total / (years * 12).
func MonthlyEMI(totalPayable decimal.Decimal, years int) decimal.Decimal {
	months := int64(years) * 12
	if months <= 0 {
		return decimal.Zero
	}
	return totalPayable.Div(decimal.NewFromInt(months)).Round(2)
}
