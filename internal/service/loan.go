package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/repository"
)

// LoanService manages the loan ledger: application intake, approval,
// direct sanctioning, repayment and payoff math. It keeps its own persisted
// stores and touches the account ledger only through the caller's disbursal
// credit.
type LoanService struct {
	mu           sync.Mutex
	repo         *repository.Repository
	log          *logrus.Logger
	loans        map[int64]*models.Loan
	applications map[int64]*models.LoanApplication
}

// NewLoanService loads the persisted loan and application tables.
func NewLoanService(repo *repository.Repository, log *logrus.Logger) *LoanService {
	return &LoanService{
		repo:         repo,
		log:          log,
		loans:        repo.LoadLoans(),
		applications: repo.LoadApplications(),
	}
}

// LoanDetails is the informational payoff view for an account's loan. The
// EMIs compare both permitted tenures regardless of the loan's actual one.
type LoanDetails struct {
	Principal decimal.Decimal   `json:"principal"`
	Pending   decimal.Decimal   `json:"pending"`
	Years     int               `json:"years"`
	Rate      decimal.Decimal   `json:"rate"`
	Status    models.LoanStatus `json:"status"`
	EMI3Years decimal.Decimal   `json:"emi_3_years"`
	EMI4Years decimal.Decimal   `json:"emi_4_years"`
}

func validTenure(years int) bool {
	return years == 3 || years == 4
}

// hasOutstanding reports an active, not-yet-cleared loan. Callers hold s.mu.
func (s *LoanService) hasOutstanding(number int64) bool {
	loan, ok := s.loans[number]
	return ok && loan.Outstanding()
}

// SubmitApplication stores a pending loan application for the account. One
// application per account; the most recent submission wins.
func (s *LoanService) SubmitApplication(acc *models.Account, amount decimal.Decimal, years int) (*models.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validTenure(years) {
		return nil, &models.ValidationError{Reason: "loan tenure must be 3 or 4 years"}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, models.ErrInvalidAmount
	}
	if s.hasOutstanding(acc.Number) {
		return nil, &models.ValidationError{Reason: "active loan exists, clear it first"}
	}

	app := &models.LoanApplication{
		AccountNumber: acc.Number,
		Name:          acc.Name,
		Principal:     amount.Round(2),
		Years:         years,
		RequestedAt:   time.Now().Format(models.TimestampLayout),
	}
	s.applications[acc.Number] = app
	if err := s.saveApplications(); err != nil {
		return nil, err
	}
	s.log.Infof("Loan application submitted for account %d: %s over %d years", acc.Number, app.Principal, years)
	cp := *app
	return &cp, nil
}

// ListApplications returns the pending applications, ordered by account.
func (s *LoanService) ListApplications() []models.LoanApplication {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.LoanApplication, 0, len(s.applications))
	for _, app := range s.applications {
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out
}

// RejectApplication discards a pending application.
func (s *LoanService) RejectApplication(number int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[number]; !ok {
		return models.ErrNoApplication
	}
	delete(s.applications, number)
	if err := s.saveApplications(); err != nil {
		return err
	}
	s.log.Infof("Loan application rejected for account %d", number)
	return nil
}

// ApproveApplication promotes a pending application into an active loan at
// the admin-chosen annual rate. The caller is responsible for crediting the
// disbursal through the account ledger.
func (s *LoanService) ApproveApplication(acc *models.Account, rate decimal.Decimal) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[acc.Number]
	if !ok {
		return nil, models.ErrNoApplication
	}
	if limit := acc.Type.LoanLimit(); app.Principal.GreaterThan(limit) {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("loan exceeds limit of %s for %s accounts", limit, acc.Type)}
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, &models.ValidationError{Reason: "rate must be positive"}
	}

	loan := s.sanction(acc, app.Principal, app.Years, rate)
	delete(s.applications, acc.Number)
	if err := s.saveApplications(); err != nil {
		return nil, err
	}
	if err := s.saveLoans(); err != nil {
		return nil, err
	}
	s.log.Infof("Loan approved for account %d: %s at %s over %d years, payable %s",
		acc.Number, loan.Principal, rate, loan.Years, loan.Pending)
	cp := *loan
	return &cp, nil
}

// TakeLoan sanctions a loan directly at the fixed type-derived rate,
// bypassing the application/approval split. Same guards as submit+approve
// combined.
func (s *LoanService) TakeLoan(acc *models.Account, amount decimal.Decimal, years int) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasOutstanding(acc.Number) {
		return nil, &models.ValidationError{Reason: "active loan exists, clear it first"}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, models.ErrInvalidAmount
	}
	if !validTenure(years) {
		return nil, &models.ValidationError{Reason: "loan tenure must be 3 or 4 years"}
	}
	if limit := acc.Type.LoanLimit(); amount.GreaterThan(limit) {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("loan exceeds limit of %s for %s accounts", limit, acc.Type)}
	}

	loan := s.sanction(acc, amount.Round(2), years, acc.Type.LoanRate())
	if err := s.saveLoans(); err != nil {
		return nil, err
	}
	s.log.Infof("Loan sanctioned for account %d: %s over %d years, payable %s",
		acc.Number, loan.Principal, years, loan.Pending)
	cp := *loan
	return &cp, nil
}

// sanction records the active loan. Callers hold s.mu and persist.
func (s *LoanService) sanction(acc *models.Account, principal decimal.Decimal, years int, rate decimal.Decimal) *models.Loan {
	loan := &models.Loan{
		AccountNumber: acc.Number,
		Name:          acc.Name,
		Principal:     principal,
		Pending:       models.TotalPayable(principal, years, rate),
		Years:         years,
		Rate:          rate,
		Status:        models.LoanStatusActive,
	}
	s.loans[acc.Number] = loan
	return loan
}

// Repay applies min(amount, pending) against the loan and returns the
// amount actually applied, so the caller can redirect any remainder into a
// regular deposit. Pending never goes negative; the loan is Cleared exactly
// when pending reaches zero.
func (s *LoanService) Repay(number int64, amount decimal.Decimal) (applied decimal.Decimal, cleared bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[number]
	if !ok || loan.Pending.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, models.ErrNoLoan
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, models.ErrInvalidAmount
	}

	applied = decimal.Min(amount, loan.Pending)
	loan.Pending = loan.Pending.Sub(applied).Round(2)
	if loan.Pending.LessThanOrEqual(decimal.Zero) {
		loan.Pending = decimal.Zero
		loan.Status = models.LoanStatusCleared
		cleared = true
	}
	if err := s.saveLoans(); err != nil {
		return decimal.Zero, false, err
	}
	s.log.Infof("Repayment of %s applied to account %d, pending %s", applied, number, loan.Pending)
	return applied, cleared, nil
}

// Details is a pure read of the loan's payoff view.
func (s *LoanService) Details(number int64) (*LoanDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[number]
	if !ok {
		return nil, models.ErrNoLoan
	}
	return &LoanDetails{
		Principal: loan.Principal,
		Pending:   loan.Pending,
		Years:     loan.Years,
		Rate:      loan.Rate,
		Status:    loan.Status,
		EMI3Years: models.MonthlyEMI(models.TotalPayable(loan.Principal, 3, loan.Rate), 3),
		EMI4Years: models.MonthlyEMI(models.TotalPayable(loan.Principal, 4, loan.Rate), 4),
	}, nil
}

// Get returns a snapshot of the loan record, if any.
func (s *LoanService) Get(number int64) (models.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[number]
	if !ok {
		return models.Loan{}, false
	}
	return *loan, true
}

// ActiveLoans returns the outstanding loans, ordered by account.
func (s *LoanService) ActiveLoans() []models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Loan, 0, len(s.loans))
	for _, loan := range s.loans {
		if loan.Outstanding() {
			out = append(out, *loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out
}

func (s *LoanService) saveLoans() error {
	if err := s.repo.SaveLoans(s.loans); err != nil {
		return fmt.Errorf("failed to persist loan table: %w", err)
	}
	return nil
}

func (s *LoanService) saveApplications() error {
	if err := s.repo.SaveApplications(s.applications); err != nil {
		return fmt.Errorf("failed to persist application table: %w", err)
	}
	return nil
}
