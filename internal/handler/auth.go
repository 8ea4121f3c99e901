package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/harshahs/digital-bank/internal/models"
)

type createAccountRequest struct {
	Name           string          `json:"name"`
	Age            int             `json:"age"`
	AccountType    string          `json:"account_type"`
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
	PIN            string          `json:"pin"`
}

// CreateAccount opens a new account and, when a PIN is supplied, sets it in
// the same request.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PIN != "" && !models.ValidPIN(req.PIN) {
		h.writeError(w, &models.ValidationError{Reason: "PIN must be exactly 4 digits"})
		return
	}

	acc, err := h.bank.CreateAccount(req.Name, req.Age, req.AccountType, req.InitialDeposit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if req.PIN != "" {
		if err := h.bank.SetPIN(acc.Number, req.PIN); err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, acc)
}

type loginRequest struct {
	AccountNumber int64  `json:"account_number"`
	PIN           string `json:"pin"`
}

// Login authenticates an account holder by PIN and returns a JWT.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ok, err := h.bank.VerifyPIN(req.AccountNumber, req.PIN)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid PIN"})
		return
	}

	token, err := h.issueToken(strconv.FormatInt(req.AccountNumber, 10), "user")
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type adminLoginRequest struct {
	Key string `json:"key"`
}

// AdminLogin authenticates the administrator by security key.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !h.adminKeyMatches(req.Key) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "access denied"})
		return
	}

	token, err := h.issueToken("admin", "admin")
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// adminKeyMatches prefers the bcrypt hash when configured and falls back to
// a constant-time comparison against the plain key.
func (h *Handler) adminKeyMatches(key string) bool {
	if h.cfg.AdminKeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminKeyHash), []byte(key)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(h.cfg.AdminKey), []byte(key)) == 1
}

func (h *Handler) issueToken(subject, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
