package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/repository"
)

// StartAccountNumber is the first account number ever assigned.
const StartAccountNumber int64 = 1001

// Daily cumulative caps, per operation kind per account.
var (
	DailyDepositLimit  = decimal.NewFromInt(200_000)
	DailyWithdrawLimit = decimal.NewFromInt(200_000)
)

// BankingService is the system of record for accounts. It loads the account
// table once at construction and rewrites it after every successful
// mutation. The store assumes a single process; the mutex only serializes
// handlers within this one.
type BankingService struct {
	mu         sync.Mutex
	repo       *repository.Repository
	log        *logrus.Logger
	accounts   map[int64]*models.Account
	nextNumber int64
}

// NewBankingService loads the persisted account table and resumes numbering
// after the highest assigned account number.
func NewBankingService(repo *repository.Repository, log *logrus.Logger) *BankingService {
	s := &BankingService{
		repo:       repo,
		log:        log,
		accounts:   repo.LoadAccounts(),
		nextNumber: StartAccountNumber,
	}
	for n := range s.accounts {
		if n >= s.nextNumber {
			s.nextNumber = n + 1
		}
	}
	return s
}

// find returns the live record. Callers hold s.mu.
func (s *BankingService) find(number int64) (*models.Account, error) {
	acc, ok := s.accounts[number]
	if !ok {
		return nil, &models.AccountNotFoundError{Number: number}
	}
	return acc, nil
}

func (s *BankingService) save() error {
	if err := s.repo.SaveAccounts(s.accounts); err != nil {
		return fmt.Errorf("failed to persist account table: %w", err)
	}
	return nil
}

func (s *BankingService) logEntry(acc *models.Account, op models.OpKind, amount *decimal.Decimal) {
	entry := models.TransactionEntry{
		Timestamp:     time.Now(),
		AccountNumber: acc.Number,
		Operation:     op,
		Amount:        amount,
		BalanceAfter:  acc.Balance,
	}
	if err := s.repo.AppendTransaction(entry); err != nil {
		s.log.Errorf("Failed to append transaction log: %v", err)
	}
}

// CreateAccount validates and opens a new account. A failed creation
// consumes no account number.
func (s *BankingService) CreateAccount(name string, age int, accountType string, initialDeposit decimal.Decimal) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Reason: "name cannot be empty"}
	}
	if age < 18 {
		return nil, &models.AgeRestrictionError{Age: age}
	}
	accType, ok := models.ParseAccountType(accountType)
	if !ok {
		return nil, &models.ValidationError{Reason: "invalid account type, choose Savings or Current"}
	}
	if minReq := accType.MinimumBalance(); initialDeposit.LessThan(minReq) {
		return nil, &models.ValidationError{Reason: fmt.Sprintf("initial deposit must be at least %s for %s accounts", minReq, accType)}
	}

	acc := &models.Account{
		Number:    s.nextNumber,
		Name:      name,
		Age:       age,
		Balance:   initialDeposit.Round(2),
		Type:      accType,
		Status:    models.StatusActive,
		CreatedAt: time.Now().Format(models.TimestampLayout),
	}
	s.accounts[acc.Number] = acc
	s.nextNumber++

	deposit := initialDeposit.Round(2)
	s.logEntry(acc, models.OpCreate, &deposit)
	if err := s.save(); err != nil {
		return nil, err
	}

	s.log.Infof("Account created: %d (%s, %s)", acc.Number, acc.Name, acc.Type)
	cp := *acc
	return &cp, nil
}

// Get returns a snapshot of the account.
func (s *BankingService) Get(number int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.find(number)
	if err != nil {
		return models.Account{}, err
	}
	return *acc, nil
}

// BalanceInquiry is a pure read of the current balance.
func (s *BankingService) BalanceInquiry(number int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.find(number)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

// Deposit credits the account, subject to the daily cumulative deposit cap.
func (s *BankingService) Deposit(number int64, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return decimal.Zero, err
	}
	if !acc.IsActive() {
		return decimal.Zero, &models.InactiveAccountError{Number: number}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, models.ErrInvalidAmount
	}
	if err := s.checkDailyLimit(number, models.OpDeposit, DailyDepositLimit, amount); err != nil {
		return decimal.Zero, err
	}
	if err := acc.Deposit(amount); err != nil {
		return decimal.Zero, err
	}

	amt := amount.Round(2)
	s.logEntry(acc, models.OpDeposit, &amt)
	if err := s.save(); err != nil {
		return decimal.Zero, err
	}
	s.log.Infof("Deposit of %s to account %d, balance %s", amt, number, acc.Balance)
	return acc.Balance, nil
}

// Withdraw debits the account, subject to the daily cumulative withdrawal
// cap. The type minimum-balance floor is not re-checked here.
func (s *BankingService) Withdraw(number int64, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return decimal.Zero, err
	}
	if !acc.IsActive() {
		return decimal.Zero, &models.InactiveAccountError{Number: number}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, models.ErrInvalidAmount
	}
	if err := s.checkDailyLimit(number, models.OpWithdraw, DailyWithdrawLimit, amount); err != nil {
		return decimal.Zero, err
	}
	if err := acc.Withdraw(amount); err != nil {
		return decimal.Zero, err
	}

	amt := amount.Round(2)
	s.logEntry(acc, models.OpWithdraw, &amt)
	if err := s.save(); err != nil {
		return decimal.Zero, err
	}
	s.log.Infof("Withdrawal of %s from account %d, balance %s", amt, number, acc.Balance)
	return acc.Balance, nil
}

func (s *BankingService) checkDailyLimit(number int64, op models.OpKind, limit, amount decimal.Decimal) error {
	used := s.repo.TodayTotal(number, op, time.Now())
	attempted := used.Add(amount)
	if attempted.GreaterThan(limit) {
		return &models.LimitExceededError{Kind: op, Limit: limit, Attempted: attempted}
	}
	return nil
}

// TransferFunds moves money between two active accounts. The operation is
// all-or-nothing: if the deposit leg fails, the sender's debit is restored
// in memory and nothing is persisted.
func (s *BankingService) TransferFunds(from, to int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from == to {
		return &models.ValidationError{Reason: "cannot transfer to the same account"}
	}
	sender, err := s.find(from)
	if err != nil {
		return err
	}
	receiver, err := s.find(to)
	if err != nil {
		return err
	}
	if !sender.IsActive() {
		return &models.InactiveAccountError{Number: from}
	}
	if !receiver.IsActive() {
		return &models.InactiveAccountError{Number: to}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return models.ErrInvalidAmount
	}
	if err := s.checkDailyLimit(from, models.OpTransferOut, DailyWithdrawLimit, amount); err != nil {
		return err
	}
	if err := sender.Withdraw(amount); err != nil {
		return err
	}
	if err := receiver.Deposit(amount); err != nil {
		// Roll back the debit; no intermediate state reaches disk.
		sender.Balance = sender.Balance.Add(amount).Round(2)
		return err
	}

	amt := amount.Round(2)
	s.logEntry(sender, models.OpTransferOut, &amt)
	s.logEntry(receiver, models.OpTransferIn, &amt)
	if err := s.save(); err != nil {
		return err
	}
	s.log.Infof("Transferred %s from account %d to account %d", amt, from, to)
	return nil
}

// TerminateAccount drains the balance and closes the account. The drain
// bypasses minimum-balance and daily-limit checks.
func (s *BankingService) TerminateAccount(number int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return err
	}
	if !acc.IsActive() {
		return &models.InactiveAccountError{Number: number}
	}

	drained := acc.Balance
	acc.Balance = decimal.Zero
	s.logEntry(acc, models.OpWithdrawFull, &drained)
	acc.Status = models.StatusInactive
	s.logEntry(acc, models.OpClose, nil)
	if err := s.save(); err != nil {
		return err
	}
	s.log.Infof("Account %d terminated, drained %s", number, drained)
	return nil
}

// ReopenAccount flips an inactive account back to active. The returned bool
// reports whether anything changed; reopening an active account is a no-op.
func (s *BankingService) ReopenAccount(number int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return false, err
	}
	if acc.IsActive() {
		return false, nil
	}
	acc.Status = models.StatusActive
	if err := s.save(); err != nil {
		return false, err
	}
	s.log.Infof("Account %d reopened", number)
	return true, nil
}

// ForceClose flips the account to inactive without draining the balance.
// Admin-only path; regular closure goes through TerminateAccount.
func (s *BankingService) ForceClose(number int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return err
	}
	acc.Status = models.StatusInactive
	return s.save()
}

// UpgradeAccountType changes the account type. The balance is deliberately
// not re-validated against the new type's minimum.
func (s *BankingService) UpgradeAccountType(number int64, newType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return err
	}
	accType, ok := models.ParseAccountType(newType)
	if !ok {
		return &models.ValidationError{Reason: "invalid account type, choose Savings or Current"}
	}
	acc.Type = accType
	if err := s.save(); err != nil {
		return err
	}
	s.log.Infof("Account %d upgraded to %s", number, accType)
	return nil
}

// RenameAccount changes the holder name.
func (s *BankingService) RenameAccount(number int64, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &models.ValidationError{Reason: "name cannot be empty"}
	}
	acc.Name = newName
	return s.save()
}

// CreditLoanDisbursal credits a sanctioned loan principal into the account.
// Privileged deposit path: it bypasses the daily deposit cap.
func (s *BankingService) CreditLoanDisbursal(number int64, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return decimal.Zero, err
	}
	if !acc.IsActive() {
		return decimal.Zero, &models.InactiveAccountError{Number: number}
	}
	if err := acc.Deposit(amount); err != nil {
		return decimal.Zero, err
	}

	amt := amount.Round(2)
	s.logEntry(acc, models.OpLoanCredit, &amt)
	if err := s.save(); err != nil {
		return decimal.Zero, err
	}
	s.log.Infof("Loan disbursal of %s credited to account %d", amt, number)
	return acc.Balance, nil
}

// CalculateSimpleInterest is a pure read: balance * rate% * years, rounded
// to currency precision.
func (s *BankingService) CalculateSimpleInterest(number int64, ratePercent decimal.Decimal, years int) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return decimal.Zero, err
	}
	if ratePercent.LessThanOrEqual(decimal.Zero) || years <= 0 {
		return decimal.Zero, models.ErrInvalidAmount
	}
	rate := ratePercent.Div(decimal.NewFromInt(100))
	interest := acc.Balance.Mul(rate).Mul(decimal.NewFromInt(int64(years))).Round(2)
	return interest, nil
}

// SetPIN stores a 4-digit PIN. Stored and compared as a plain string for
// parity with the existing data files.
func (s *BankingService) SetPIN(number int64, pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return err
	}
	if !models.ValidPIN(pin) {
		return &models.ValidationError{Reason: "PIN must be exactly 4 digits"}
	}
	acc.PIN = strings.TrimSpace(pin)
	return s.save()
}

// VerifyPIN compares the supplied PIN with the stored one after whitespace
// normalization.
func (s *BankingService) VerifyPIN(number int64, pin string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.find(number)
	if err != nil {
		return false, err
	}
	return acc.PIN != "" && strings.TrimSpace(pin) == strings.TrimSpace(acc.PIN), nil
}

// History returns the transaction-log entries for the account.
func (s *BankingService) History(number int64) ([]models.TransactionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(number); err != nil {
		return nil, err
	}
	return s.repo.AccountHistory(number)
}

// DailyTotals reports today's cumulative deposit and withdrawal amounts, so
// callers can show the remaining headroom under the caps.
func (s *BankingService) DailyTotals(number int64) (deposited, withdrawn decimal.Decimal, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(number); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	now := time.Now()
	return s.repo.TodayTotal(number, models.OpDeposit, now), s.repo.TodayTotal(number, models.OpWithdraw, now), nil
}

// AllAccounts returns a snapshot of every account, ordered by number.
func (s *BankingService) AllAccounts() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(func(*models.Account) bool { return true })
}

// ActiveAccounts returns the accounts currently accepting operations.
func (s *BankingService) ActiveAccounts() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(func(a *models.Account) bool { return a.IsActive() })
}

// ClosedAccounts returns the inactive accounts.
func (s *BankingService) ClosedAccounts() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(func(a *models.Account) bool { return !a.IsActive() })
}

func (s *BankingService) snapshot(keep func(*models.Account) bool) []models.Account {
	out := make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if keep(acc) {
			out = append(out, *acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// TopNByBalance returns the n highest-balance accounts.
func (s *BankingService) TopNByBalance(n int) []models.Account {
	if n <= 0 {
		return nil
	}
	all := s.AllAccounts()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Balance.GreaterThan(all[j].Balance) })
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// AverageBalance is the mean balance across all accounts, zero when the
// bank is empty.
func (s *BankingService) AverageBalance() decimal.Decimal {
	all := s.AllAccounts()
	if len(all) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, acc := range all {
		total = total.Add(acc.Balance)
	}
	return total.Div(decimal.NewFromInt(int64(len(all)))).Round(2)
}

// AgeExtremes returns up to the three youngest and three oldest holders.
func (s *BankingService) AgeExtremes() (youngest, oldest []models.Account) {
	all := s.AllAccounts()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Age < all[j].Age })
	n := len(all)
	if n > 3 {
		youngest = append(youngest, all[:3]...)
		oldest = append(oldest, all[n-3:]...)
	} else {
		youngest = append(youngest, all...)
		oldest = append(oldest, all...)
	}
	// Oldest first.
	sort.SliceStable(oldest, func(i, j int) bool { return oldest[i].Age > oldest[j].Age })
	return youngest, oldest
}

// DeleteAllAccounts clears the entire account table. The sole operation
// that physically removes records; assigned numbers are still never reused
// within this process.
func (s *BankingService) DeleteAllAccounts() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[int64]*models.Account)
	if err := s.save(); err != nil {
		return err
	}
	s.log.Warn("All accounts deleted")
	return nil
}

// Export writes a copy of the account table to path.
func (s *BankingService) Export(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ExportAccounts(path, s.accounts)
}

// Import replaces the in-memory table with the accounts read from path and
// persists the result. Numbering resumes after the highest imported number.
func (s *BankingService) Import(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.repo.ImportAccounts(path)
	if err != nil {
		return 0, err
	}
	s.accounts = accounts
	s.nextNumber = StartAccountNumber
	for n := range accounts {
		if n >= s.nextNumber {
			s.nextNumber = n + 1
		}
	}
	if err := s.save(); err != nil {
		return 0, err
	}
	return len(accounts), nil
}
