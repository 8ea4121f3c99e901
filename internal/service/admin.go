package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/repository"
)

// AdminService wraps the ledger and loan services with administrative
// oversight. Every mutation is recorded in the admin action log; the sink is
// fire-and-forget, a failed audit write never fails the operation.
type AdminService struct {
	bank *BankingService
	loan *LoanService
	repo *repository.Repository
	log  *logrus.Logger
}

// NewAdminService wires the admin surface over the existing services.
func NewAdminService(bank *BankingService, loan *LoanService, repo *repository.Repository, log *logrus.Logger) *AdminService {
	return &AdminService{bank: bank, loan: loan, repo: repo, log: log}
}

func (s *AdminService) audit(format string, args ...any) {
	if err := s.repo.AppendAdminAction(fmt.Sprintf(format, args...)); err != nil {
		s.log.Errorf("Failed to record admin action: %v", err)
	}
}

// ViewAllAccounts returns every account on record.
func (s *AdminService) ViewAllAccounts() []models.Account {
	return s.bank.AllAccounts()
}

// SearchAccount looks up a single account.
func (s *AdminService) SearchAccount(number int64) (models.Account, error) {
	return s.bank.Get(number)
}

// ReactivateAccount reopens a closed account. Returns false when the
// account was already active.
func (s *AdminService) ReactivateAccount(number int64) (bool, error) {
	reopened, err := s.bank.ReopenAccount(number)
	if err != nil {
		return false, err
	}
	if reopened {
		s.audit("Reactivated account %d", number)
	}
	return reopened, nil
}

// ForceCloseAccount closes an account without draining its balance.
func (s *AdminService) ForceCloseAccount(number int64) error {
	if err := s.bank.ForceClose(number); err != nil {
		return err
	}
	s.audit("Force-closed account %d", number)
	return nil
}

// DeleteAllAccounts wipes the account table.
func (s *AdminService) DeleteAllAccounts() error {
	if err := s.bank.DeleteAllAccounts(); err != nil {
		return err
	}
	s.audit("Deleted all accounts")
	return nil
}

// TransactionLogs returns the transaction log, optionally filtered to a
// single account. Filtering parses each line rather than substring-matching
// so account 101 never picks up lines for 1011.
func (s *AdminService) TransactionLogs(account int64) (string, error) {
	raw, err := s.repo.ReadTransactions()
	if err != nil {
		return "", err
	}
	if account <= 0 {
		return raw, nil
	}
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := models.ParseTransactionLine(line)
		if err != nil || entry.AccountNumber != account {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// PendingApplications lists the loan applications awaiting a decision.
func (s *AdminService) PendingApplications() []models.LoanApplication {
	return s.loan.ListApplications()
}

// ApproveLoanApplication sanctions a pending application at the given annual
// rate and credits the disbursal to the account.
func (s *AdminService) ApproveLoanApplication(number int64, rate decimal.Decimal) (*models.Loan, error) {
	acc, err := s.bank.Get(number)
	if err != nil {
		return nil, err
	}
	loan, err := s.loan.ApproveApplication(&acc, rate)
	if err != nil {
		return nil, err
	}
	if _, err := s.bank.CreditLoanDisbursal(number, loan.Principal); err != nil {
		return nil, err
	}
	s.audit("Approved loan of %s for account %d at %s%%", loan.Principal, number, rate.Mul(decimal.NewFromInt(100)))
	return loan, nil
}

// RejectLoanApplication discards a pending application.
func (s *AdminService) RejectLoanApplication(number int64) error {
	if err := s.loan.RejectApplication(number); err != nil {
		return err
	}
	s.audit("Rejected loan application for account %d", number)
	return nil
}

// AdminActions returns the admin audit log.
func (s *AdminService) AdminActions() (string, error) {
	return s.repo.ReadAdminActions()
}

// Summary is the admin dashboard overview.
type Summary struct {
	TotalAccounts       int             `json:"total_accounts"`
	ActiveAccounts      int             `json:"active_accounts"`
	AverageBalance      decimal.Decimal `json:"average_balance"`
	ActiveLoans         []models.Loan   `json:"active_loans"`
	PendingApplications int             `json:"pending_applications"`
}

// Summarize aggregates the dashboard numbers.
func (s *AdminService) Summarize() Summary {
	return Summary{
		TotalAccounts:       len(s.bank.AllAccounts()),
		ActiveAccounts:      len(s.bank.ActiveAccounts()),
		AverageBalance:      s.bank.AverageBalance(),
		ActiveLoans:         s.loan.ActiveLoans(),
		PendingApplications: len(s.loan.ListApplications()),
	}
}

// ExportAccounts writes the account table to an external path.
func (s *AdminService) ExportAccounts(path string) error {
	if err := s.bank.Export(path); err != nil {
		return err
	}
	s.audit("Exported accounts to %s", path)
	return nil
}

// ImportAccounts replaces the account table from an external file.
func (s *AdminService) ImportAccounts(path string) (int, error) {
	n, err := s.bank.Import(path)
	if err != nil {
		return 0, err
	}
	s.audit("Imported %d accounts from %s", n, path)
	return n, nil
}
