package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type loanRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Years  int             `json:"years"`
}

// ApplyForLoan files a loan application for the caller's account. The
// application waits for an admin decision; nothing is credited yet.
func (h *Handler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req loanRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	acc, err := h.bank.Get(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	app, err := h.loan.SubmitApplication(&acc, req.Amount, req.Years)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// TakeLoan sanctions a loan immediately at the account type's fixed rate and
// credits the disbursal to the caller's balance.
func (h *Handler) TakeLoan(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	var req loanRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	acc, err := h.bank.Get(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.loan.TakeLoan(&acc, req.Amount, req.Years)
	if err != nil {
		h.writeError(w, err)
		return
	}
	balance, err := h.bank.CreditLoanDisbursal(number, loan.Principal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"loan":    loan,
		"balance": balance,
	})
}

// LoanDetails returns the caller's loan with payoff figures for both
// permitted tenures.
func (h *Handler) LoanDetails(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid subject"})
		return
	}
	details, err := h.loan.Details(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// RepayLoan pays down the caller's outstanding loan from external funds, as
// opposed to the deposit-with-repayment flow which spends the deposit first.
func (h *Handler) RepayLoan(w http.ResponseWriter, r *http.Request) {
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
	applied, cleared, err := h.loan.Repay(number, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.notifyRepayment(number, applied)
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": applied,
		"cleared": cleared,
	})
}

// notifyRepayment mails the bank mailbox about an applied repayment.
// Fire-and-forget: a mail failure never fails the repayment itself.
func (h *Handler) notifyRepayment(number int64, applied decimal.Decimal) {
	if !h.cfg.EmailEnabled() || applied.LessThanOrEqual(decimal.Zero) {
		return
	}
	pending := decimal.Zero
	if loan, ok := h.loan.Get(number); ok {
		pending = loan.Pending
	}
	if err := h.mail.SendRepaymentConfirmation(h.cfg.AdminEmail, number, applied.String(), pending.String()); err != nil {
		h.log.Errorf("Failed to send repayment confirmation: %v", err)
	}
}
