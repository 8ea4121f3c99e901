package service

import (
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestBank(t *testing.T) (*BankingService, *repository.Repository) {
	t.Helper()
	log := testLogger()
	repo, err := repository.NewRepository(t.TempDir(), log)
	require.NoError(t, err)
	return NewBankingService(repo, log), repo
}

func mustCreate(t *testing.T, s *BankingService, name string, age int, accType string, deposit int64) *models.Account {
	t.Helper()
	acc, err := s.CreateAccount(name, age, accType, decimal.NewFromInt(deposit))
	require.NoError(t, err)
	return acc
}

func TestCreateAccountAssignsSequentialNumbers(t *testing.T) {
	s, _ := newTestBank(t)

	first := mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	second := mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	assert.Equal(t, StartAccountNumber, first.Number)
	assert.Equal(t, StartAccountNumber+1, second.Number)
	assert.Equal(t, models.AccountTypeSavings, first.Type)
	assert.Equal(t, models.AccountTypeCurrent, second.Type)
	assert.Equal(t, models.StatusActive, first.Status)
}

func TestCreateAccountValidation(t *testing.T) {
	s, _ := newTestBank(t)

	// Age 17 is rejected, 18 is the boundary.
	_, err := s.CreateAccount("Minor", 17, "savings", decimal.NewFromInt(500))
	var ageErr *models.AgeRestrictionError
	require.ErrorAs(t, err, &ageErr)
	assert.Equal(t, 17, ageErr.Age)

	_, err = s.CreateAccount("Adult", 18, "savings", decimal.NewFromInt(500))
	assert.NoError(t, err)

	// Empty and whitespace-only names.
	var validation *models.ValidationError
	_, err = s.CreateAccount("", 30, "savings", decimal.NewFromInt(500))
	require.ErrorAs(t, err, &validation)
	_, err = s.CreateAccount("   ", 30, "savings", decimal.NewFromInt(500))
	require.ErrorAs(t, err, &validation)

	// Unknown type.
	_, err = s.CreateAccount("Asha Rao", 30, "checking", decimal.NewFromInt(500))
	require.ErrorAs(t, err, &validation)

	// Opening deposits under the type minimum.
	_, err = s.CreateAccount("Asha Rao", 30, "savings", decimal.NewFromInt(499))
	require.ErrorAs(t, err, &validation)
	_, err = s.CreateAccount("Asha Rao", 30, "current", decimal.NewFromInt(999))
	require.ErrorAs(t, err, &validation)
}

// A failed creation must not consume an account number.
func TestFailedCreateConsumesNoNumber(t *testing.T) {
	s, _ := newTestBank(t)

	_, err := s.CreateAccount("", 30, "savings", decimal.NewFromInt(500))
	require.Error(t, err)
	_, err = s.CreateAccount("Minor", 10, "savings", decimal.NewFromInt(500))
	require.Error(t, err)

	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	assert.Equal(t, StartAccountNumber, acc.Number)
}

func TestNumberingResumesAfterRestart(t *testing.T) {
	log := testLogger()
	dir := t.TempDir()
	repo, err := repository.NewRepository(dir, log)
	require.NoError(t, err)

	s := NewBankingService(repo, log)
	mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	reloaded := NewBankingService(repo, log)
	acc := mustCreate(t, reloaded, "Meera Nair", 28, "savings", 600)
	assert.Equal(t, StartAccountNumber+2, acc.Number)
}

func TestDepositAndWithdraw(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 1000)

	balance, err := s.Deposit(acc.Number, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1500)))

	balance, err = s.Withdraw(acc.Number, decimal.NewFromInt(1200))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(300)), "minimum balance is an opening floor only")

	_, err = s.Withdraw(acc.Number, decimal.NewFromInt(301))
	var insufficient *models.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)

	_, err = s.Deposit(acc.Number, decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = s.Withdraw(acc.Number, decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	var notFound *models.AccountNotFoundError
	_, err = s.Deposit(9999, decimal.NewFromInt(100))
	require.ErrorAs(t, err, &notFound)
}

// Eight 25k deposits exhaust the 200k daily cap exactly; one more rupee is
// rejected while a withdrawal still goes through on its own cap.
func TestDailyDepositLimit(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 1000)

	for i := 0; i < 8; i++ {
		_, err := s.Deposit(acc.Number, decimal.NewFromInt(25_000))
		require.NoError(t, err, "deposit %d", i+1)
	}

	_, err := s.Deposit(acc.Number, decimal.NewFromInt(1))
	var limit *models.LimitExceededError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, models.OpDeposit, limit.Kind)
	assert.True(t, limit.Limit.Equal(DailyDepositLimit))

	_, err = s.Withdraw(acc.Number, decimal.NewFromInt(50_000))
	assert.NoError(t, err, "withdrawal cap is tracked separately")
}

func TestDailyWithdrawLimit(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 500_000)

	_, err := s.Withdraw(acc.Number, decimal.NewFromInt(200_000))
	require.NoError(t, err)

	_, err = s.Withdraw(acc.Number, decimal.NewFromInt(1))
	var limit *models.LimitExceededError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, models.OpWithdraw, limit.Kind)
}

func TestDepositToInactiveAccount(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 1000)
	require.NoError(t, s.TerminateAccount(acc.Number))

	var inactive *models.InactiveAccountError
	_, err := s.Deposit(acc.Number, decimal.NewFromInt(100))
	require.ErrorAs(t, err, &inactive)
	_, err = s.Withdraw(acc.Number, decimal.NewFromInt(100))
	require.ErrorAs(t, err, &inactive)
}

func TestTransferFunds(t *testing.T) {
	s, _ := newTestBank(t)
	from := mustCreate(t, s, "Asha Rao", 30, "savings", 5000)
	to := mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	require.NoError(t, s.TransferFunds(from.Number, to.Number, decimal.NewFromInt(1500)))

	fromBal, err := s.BalanceInquiry(from.Number)
	require.NoError(t, err)
	toBal, err := s.BalanceInquiry(to.Number)
	require.NoError(t, err)
	assert.True(t, fromBal.Equal(decimal.NewFromInt(3500)))
	assert.True(t, toBal.Equal(decimal.NewFromInt(2500)))

	history, err := s.History(from.Number)
	require.NoError(t, err)
	var kinds []models.OpKind
	for _, e := range history {
		kinds = append(kinds, e.Operation)
	}
	assert.Contains(t, kinds, models.OpTransferOut)
}

func TestTransferValidation(t *testing.T) {
	s, _ := newTestBank(t)
	from := mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	to := mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	var validation *models.ValidationError
	err := s.TransferFunds(from.Number, from.Number, decimal.NewFromInt(100))
	require.ErrorAs(t, err, &validation)

	var notFound *models.AccountNotFoundError
	err = s.TransferFunds(from.Number, 9999, decimal.NewFromInt(100))
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, s.TerminateAccount(to.Number))
	var inactive *models.InactiveAccountError
	err = s.TransferFunds(from.Number, to.Number, decimal.NewFromInt(100))
	require.ErrorAs(t, err, &inactive)
}

// A transfer that fails on insufficient funds must leave both balances and
// the transaction log untouched.
func TestFailedTransferLeavesNoTrace(t *testing.T) {
	s, repo := newTestBank(t)
	from := mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	to := mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	err := s.TransferFunds(from.Number, to.Number, decimal.NewFromInt(10_000))
	var insufficient *models.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)

	fromBal, err := s.BalanceInquiry(from.Number)
	require.NoError(t, err)
	toBal, err := s.BalanceInquiry(to.Number)
	require.NoError(t, err)
	assert.True(t, fromBal.Equal(decimal.NewFromInt(500)))
	assert.True(t, toBal.Equal(decimal.NewFromInt(1000)))

	raw, err := repo.ReadTransactions()
	require.NoError(t, err)
	assert.NotContains(t, raw, string(models.OpTransferOut))
	assert.NotContains(t, raw, string(models.OpTransferIn))
}

func TestTransferDailyLimit(t *testing.T) {
	s, _ := newTestBank(t)
	from := mustCreate(t, s, "Asha Rao", 30, "current", 500_000)
	to := mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	require.NoError(t, s.TransferFunds(from.Number, to.Number, decimal.NewFromInt(200_000)))

	err := s.TransferFunds(from.Number, to.Number, decimal.NewFromInt(1))
	var limit *models.LimitExceededError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, models.OpTransferOut, limit.Kind)
}

// Termination drains the balance, logs WITHDRAW_FULL then CLOSE, and leaves
// the record inactive rather than deleting it.
func TestTerminateAccount(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 2500)

	require.NoError(t, s.TerminateAccount(acc.Number))

	got, err := s.Get(acc.Number)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.True(t, got.Balance.IsZero())

	history, err := s.History(acc.Number)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(history), 3)
	last, prev := history[len(history)-1], history[len(history)-2]
	assert.Equal(t, models.OpClose, last.Operation)
	assert.Nil(t, last.Amount)
	assert.Equal(t, models.OpWithdrawFull, prev.Operation)
	require.NotNil(t, prev.Amount)
	assert.True(t, prev.Amount.Equal(decimal.NewFromInt(2500)))

	var inactive *models.InactiveAccountError
	assert.ErrorAs(t, s.TerminateAccount(acc.Number), &inactive)
}

func TestReopenAccount(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 1000)

	reopened, err := s.ReopenAccount(acc.Number)
	require.NoError(t, err)
	assert.False(t, reopened, "reopening an active account is a no-op")

	require.NoError(t, s.TerminateAccount(acc.Number))
	reopened, err = s.ReopenAccount(acc.Number)
	require.NoError(t, err)
	assert.True(t, reopened)

	_, err = s.Deposit(acc.Number, decimal.NewFromInt(100))
	assert.NoError(t, err)
}

func TestForceCloseKeepsBalance(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 2500)

	require.NoError(t, s.ForceClose(acc.Number))
	got, err := s.Get(acc.Number)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(2500)))
}

func TestUpgradeAndRename(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 600)

	// Balance below the Current minimum is fine; the floor is not
	// re-validated on upgrade.
	require.NoError(t, s.UpgradeAccountType(acc.Number, "current"))
	got, err := s.Get(acc.Number)
	require.NoError(t, err)
	assert.Equal(t, models.AccountTypeCurrent, got.Type)

	var validation *models.ValidationError
	require.ErrorAs(t, s.UpgradeAccountType(acc.Number, "premium"), &validation)

	require.NoError(t, s.RenameAccount(acc.Number, "Asha R. Iyer"))
	got, err = s.Get(acc.Number)
	require.NoError(t, err)
	assert.Equal(t, "Asha R. Iyer", got.Name)

	require.ErrorAs(t, s.RenameAccount(acc.Number, "  "), &validation)
}

// Loan disbursals are a privileged credit path: they bypass the daily
// deposit cap entirely.
func TestCreditLoanDisbursalBypassesCap(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "current", 1000)

	balance, err := s.CreditLoanDisbursal(acc.Number, decimal.NewFromInt(1_500_000))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1_501_000)))

	history, err := s.History(acc.Number)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, models.OpLoanCredit, last.Operation)

	// Regular deposits still honor the cap afterwards.
	_, err = s.Deposit(acc.Number, decimal.NewFromInt(200_000))
	assert.NoError(t, err)
}

func TestCalculateSimpleInterest(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 10_000)

	interest, err := s.CalculateSimpleInterest(acc.Number, decimal.NewFromFloat(7.5), 2)
	require.NoError(t, err)
	assert.True(t, interest.Equal(decimal.NewFromInt(1500)), "got %s", interest)

	_, err = s.CalculateSimpleInterest(acc.Number, decimal.Zero, 2)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	_, err = s.CalculateSimpleInterest(acc.Number, decimal.NewFromFloat(7.5), 0)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestPINLifecycle(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 500)

	// No PIN stored yet: verification always fails.
	ok, err := s.VerifyPIN(acc.Number, "1234")
	require.NoError(t, err)
	assert.False(t, ok)

	var validation *models.ValidationError
	require.ErrorAs(t, s.SetPIN(acc.Number, "12"), &validation)
	require.ErrorAs(t, s.SetPIN(acc.Number, "abcd"), &validation)

	require.NoError(t, s.SetPIN(acc.Number, "1234"))
	ok, err = s.VerifyPIN(acc.Number, " 1234 ")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.VerifyPIN(acc.Number, "4321")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDailyTotals(t *testing.T) {
	s, _ := newTestBank(t)
	acc := mustCreate(t, s, "Asha Rao", 30, "savings", 10_000)

	_, err := s.Deposit(acc.Number, decimal.NewFromInt(3000))
	require.NoError(t, err)
	_, err = s.Withdraw(acc.Number, decimal.NewFromInt(1200))
	require.NoError(t, err)

	deposited, withdrawn, err := s.DailyTotals(acc.Number)
	require.NoError(t, err)
	assert.True(t, deposited.Equal(decimal.NewFromInt(3000)))
	assert.True(t, withdrawn.Equal(decimal.NewFromInt(1200)))
}

func TestAccountListingsAndStats(t *testing.T) {
	s, _ := newTestBank(t)
	a := mustCreate(t, s, "Asha Rao", 22, "savings", 500)
	b := mustCreate(t, s, "Vikram Iyer", 45, "current", 9000)
	c := mustCreate(t, s, "Meera Nair", 67, "savings", 3000)
	require.NoError(t, s.TerminateAccount(c.Number))

	all := s.AllAccounts()
	require.Len(t, all, 3)
	assert.Equal(t, a.Number, all[0].Number, "ordered by number")

	active := s.ActiveAccounts()
	require.Len(t, active, 2)
	closed := s.ClosedAccounts()
	require.Len(t, closed, 1)
	assert.Equal(t, c.Number, closed[0].Number)

	top := s.TopNByBalance(2)
	require.Len(t, top, 2)
	assert.Equal(t, b.Number, top[0].Number)
	assert.Empty(t, s.TopNByBalance(0))

	// (500 + 9000 + 0) / 3; the terminated account was drained.
	avg := s.AverageBalance()
	assert.True(t, avg.Equal(decimal.NewFromFloat(3166.67)), "got %s", avg)

	youngest, oldest := s.AgeExtremes()
	require.NotEmpty(t, youngest)
	require.NotEmpty(t, oldest)
	assert.Equal(t, 22, youngest[0].Age)
	assert.Equal(t, 67, oldest[0].Age)
}

func TestAverageBalanceEmptyBank(t *testing.T) {
	s, _ := newTestBank(t)
	assert.True(t, s.AverageBalance().IsZero())
}

func TestDeleteAllAccounts(t *testing.T) {
	s, _ := newTestBank(t)
	mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	require.NoError(t, s.DeleteAllAccounts())
	assert.Empty(t, s.AllAccounts())

	// Numbers are never reused within the process.
	acc := mustCreate(t, s, "Meera Nair", 28, "savings", 600)
	assert.Equal(t, StartAccountNumber+2, acc.Number)
}

func TestExportImport(t *testing.T) {
	s, _ := newTestBank(t)
	mustCreate(t, s, "Asha Rao", 30, "savings", 500)
	mustCreate(t, s, "Vikram Iyer", 45, "current", 1000)

	path := t.TempDir() + "/backup.csv"
	require.NoError(t, s.Export(path))
	require.NoError(t, s.DeleteAllAccounts())

	n, err := s.Import(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	acc := mustCreate(t, s, "Meera Nair", 28, "savings", 600)
	assert.Equal(t, StartAccountNumber+2, acc.Number, "numbering resumes after the imported maximum")
}
