package handler

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/service"
)

type amountRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	LoanRepayment bool            `json:"loan_repayment"`
}

// Balance returns the caller's current balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	balance, err := h.bank.BalanceInquiry(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// Deposit credits the caller's account. With loan_repayment set, the amount
// first pays down the outstanding loan and only the remainder is deposited.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req amountRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		h.writeError(w, models.ErrInvalidAmount)
		return
	}

	applied := decimal.Zero
	cleared := false
	if req.LoanRepayment {
		applied, cleared, err = h.loan.Repay(number, req.Amount)
		if err != nil && !errors.Is(err, models.ErrNoLoan) {
			h.writeError(w, err)
			return
		}
		h.notifyRepayment(number, applied)
	}

	balance := decimal.Zero
	deposited := req.Amount.Sub(applied).Round(2)
	if deposited.GreaterThan(decimal.Zero) {
		balance, err = h.bank.Deposit(number, deposited)
		if err != nil {
			h.writeError(w, err)
			return
		}
	} else if balance, err = h.bank.BalanceInquiry(number); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balance":      balance,
		"deposited":    deposited,
		"loan_applied": applied,
		"loan_cleared": cleared,
	})
}

// Withdraw debits the caller's account. The response warns when the result
// falls under the type minimum; the withdrawal itself still goes through.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req amountRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	acc, err := h.bank.Get(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	belowMinimum := acc.BelowMinimumAfter(req.Amount)

	balance, err := h.bank.Withdraw(number, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":       balance,
		"below_minimum": belowMinimum,
	})
}

type transferRequest struct {
	ToAccount int64           `json:"to_account"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transfer moves money from the caller's account to another.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.bank.TransferFunds(number, req.ToAccount, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

// History returns the caller's transaction-log entries.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	entries, err := h.bank.History(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Limits reports today's usage and remaining headroom under the daily caps.
func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	deposited, withdrawn, err := h.bank.DailyTotals(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{
		"deposit_used":       deposited,
		"deposit_remaining":  service.DailyDepositLimit.Sub(deposited),
		"withdraw_used":      withdrawn,
		"withdraw_remaining": service.DailyWithdrawLimit.Sub(withdrawn),
	})
}

// Rename changes the caller's holder name.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.bank.RenameAccount(number, req.Name); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// Upgrade changes the caller's account type.
func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req struct {
		AccountType string `json:"account_type"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.bank.UpgradeAccountType(number, req.AccountType); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "upgraded"})
}

// Reopen reactivates the caller's closed account.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	reopened, err := h.bank.ReopenAccount(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reopened": reopened})
}

// Close terminates the caller's account, draining the balance.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	if err := h.bank.TerminateAccount(number); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// SimpleInterest computes the advisory simple interest on the balance. The
// rate defaults by account type when not supplied.
func (h *Handler) SimpleInterest(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}

	years := 1
	if v := r.URL.Query().Get("years"); v != "" {
		if years, err = atoiQuery(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid years"})
			return
		}
	}

	var rate decimal.Decimal
	if v := r.URL.Query().Get("rate"); v != "" {
		if rate, err = decimal.NewFromString(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rate"})
			return
		}
	} else {
		acc, err := h.bank.Get(number)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if acc.Type == models.AccountTypeSavings {
			rate = decimal.NewFromFloat(7.5)
		} else {
			rate = decimal.NewFromFloat(9.5)
		}
	}

	interest, err := h.bank.CalculateSimpleInterest(number, rate, years)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{
		"rate_percent": rate,
		"interest":     interest,
	})
}
