package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/config"
	"github.com/harshahs/digital-bank/internal/integrations/ratefeed"
	"github.com/harshahs/digital-bank/internal/middleware"
	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/service"
	"github.com/harshahs/digital-bank/internal/utils/email"
)

// Handler exposes the banking, loan and admin services over JSON.
type Handler struct {
	bank  *service.BankingService
	loan  *service.LoanService
	admin *service.AdminService
	rates *ratefeed.Client
	mail  *email.Sender
	cfg   *config.Config
	log   *logrus.Logger
}

// NewHandler wires the HTTP surface over the services.
func NewHandler(bank *service.BankingService, loan *service.LoanService, admin *service.AdminService, rates *ratefeed.Client, mail *email.Sender, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{bank: bank, loan: loan, admin: admin, rates: rates, mail: mail, cfg: cfg, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the domain error set onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		notFound     *models.AccountNotFoundError
		inactive     *models.InactiveAccountError
		insufficient *models.InsufficientFundsError
		ageLimit     *models.AgeRestrictionError
		limit        *models.LimitExceededError
		validation   *models.ValidationError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound), errors.Is(err, models.ErrNoLoan), errors.Is(err, models.ErrNoApplication):
		status = http.StatusNotFound
	case errors.As(err, &inactive), errors.As(err, &insufficient):
		status = http.StatusConflict
	case errors.As(err, &limit), errors.As(err, &ageLimit):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &validation), errors.Is(err, models.ErrInvalidAmount):
		status = http.StatusBadRequest
	default:
		h.log.Errorf("Internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// accountNumber resolves the authenticated caller's account number from the
// JWT subject.
func accountNumber(r *http.Request) (int64, error) {
	return strconv.ParseInt(middleware.Subject(r), 10, 64)
}

// pathNumber reads the {number} route variable.
func pathNumber(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["number"], 10, 64)
}

func atoiQuery(v string) (int, error) {
	return strconv.Atoi(v)
}

// KeyRate returns the rate feed's suggested annual rate in percent.
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.SuggestedRate()
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to get key rate"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"key_rate": rate})
}
