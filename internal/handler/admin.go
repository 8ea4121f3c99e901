package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/harshahs/digital-bank/internal/models"
)

// AdminAccounts lists accounts, optionally filtered with ?status=active or
// ?status=closed.
func (h *Handler) AdminAccounts(w http.ResponseWriter, r *http.Request) {
	var accounts []models.Account
	switch r.URL.Query().Get("status") {
	case "active":
		accounts = h.bank.ActiveAccounts()
	case "closed":
		accounts = h.bank.ClosedAccounts()
	default:
		accounts = h.admin.ViewAllAccounts()
	}
	writeJSON(w, http.StatusOK, accounts)
}

// AdminSearchAccount returns a single account by number.
func (h *Handler) AdminSearchAccount(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account number"})
		return
	}
	acc, err := h.admin.SearchAccount(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// AdminReactivate reopens a closed account on the holder's behalf.
func (h *Handler) AdminReactivate(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account number"})
		return
	}
	reopened, err := h.admin.ReactivateAccount(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reopened": reopened})
}

// AdminForceClose marks an account inactive without draining the balance.
func (h *Handler) AdminForceClose(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account number"})
		return
	}
	if err := h.admin.ForceCloseAccount(number); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// AdminDeleteAll wipes the account table.
func (h *Handler) AdminDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteAllAccounts(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminTransactionLogs streams the transaction log as text, optionally
// filtered with ?account=N.
func (h *Handler) AdminTransactionLogs(w http.ResponseWriter, r *http.Request) {
	var account int64
	if v := r.URL.Query().Get("account"); v != "" {
		n, err := atoiQuery(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account number"})
			return
		}
		account = int64(n)
	}
	logs, err := h.admin.TransactionLogs(account)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(logs))
}

// AdminActions streams the admin audit log as text.
func (h *Handler) AdminActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.admin.AdminActions()
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(actions))
}

// AdminSummary returns the dashboard overview.
func (h *Handler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Summarize())
}

// AdminTopAccounts lists the N largest balances, ?n= defaulting to 5.
func (h *Handler) AdminTopAccounts(w http.ResponseWriter, r *http.Request) {
	n := 5
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		if n, err = atoiQuery(v); err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid n"})
			return
		}
	}
	writeJSON(w, http.StatusOK, h.bank.TopNByBalance(n))
}

// AdminAgeExtremes lists the youngest and oldest account holders.
func (h *Handler) AdminAgeExtremes(w http.ResponseWriter, r *http.Request) {
	youngest, oldest := h.bank.AgeExtremes()
	writeJSON(w, http.StatusOK, map[string][]models.Account{
		"youngest": youngest,
		"oldest":   oldest,
	})
}

// AdminApplications lists the loan applications awaiting a decision.
func (h *Handler) AdminApplications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.PendingApplications())
}

type approveRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

// AdminApproveLoan sanctions a pending application. The rate defaults to the
// feed-suggested rate when the body omits it and the feed is reachable.
func (h *Handler) AdminApproveLoan(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account number"})
		return
	}
	var req approveRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rate := req.Rate
	if rate.LessThanOrEqual(decimal.Zero) {
		suggested, err := h.rates.SuggestedRate()
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "no rate supplied and rate feed unavailable"})
			return
		}
		// The feed speaks in percent; loan rates are annual fractions.
		rate = decimal.NewFromFloat(suggested).Div(decimal.NewFromInt(100)).Round(4)
	}

	loan, err := h.admin.ApproveLoanApplication(number, rate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// AdminRejectLoan discards a pending application.
func (h *Handler) AdminRejectLoan(w http.ResponseWriter, r *http.Request) {
	number, err := pathNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account number"})
		return
	}
	if err := h.admin.RejectLoanApplication(number); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

type pathRequest struct {
	Path string `json:"path"`
}

// AdminExport writes the account table to a file on the server.
func (h *Handler) AdminExport(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decode(r, &req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.admin.ExportAccounts(req.Path); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "exported"})
}

// AdminImport replaces the account table from a file on the server.
func (h *Handler) AdminImport(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decode(r, &req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	n, err := h.admin.ImportAccounts(req.Path)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
