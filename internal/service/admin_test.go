package service

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshahs/digital-bank/internal/models"
	"github.com/harshahs/digital-bank/internal/repository"
)

func newTestAdmin(t *testing.T) (*AdminService, *BankingService, *LoanService) {
	t.Helper()
	log := testLogger()
	repo, err := repository.NewRepository(t.TempDir(), log)
	require.NoError(t, err)
	bank := NewBankingService(repo, log)
	loan := NewLoanService(repo, log)
	return NewAdminService(bank, loan, repo, log), bank, loan
}

func TestApproveLoanApplicationCreditsDisbursal(t *testing.T) {
	admin, bank, loan := newTestAdmin(t)
	acc := mustCreate(t, bank, "Asha Rao", 30, "savings", 1000)

	_, err := loan.SubmitApplication(acc, decimal.NewFromInt(100_000), 3)
	require.NoError(t, err)

	sanctioned, err := admin.ApproveLoanApplication(acc.Number, decimal.NewFromFloat(0.06))
	require.NoError(t, err)
	assert.True(t, sanctioned.Pending.Equal(decimal.NewFromInt(118_000)))

	balance, err := bank.BalanceInquiry(acc.Number)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(101_000)), "principal credited on approval")

	actions, err := admin.AdminActions()
	require.NoError(t, err)
	assert.Contains(t, actions, "Approved loan")
	assert.Contains(t, actions, "at 6%", "audit records the rate in percent")
}

func TestApproveLoanApplicationUnknownAccount(t *testing.T) {
	admin, _, _ := newTestAdmin(t)
	var notFound *models.AccountNotFoundError
	_, err := admin.ApproveLoanApplication(9999, decimal.NewFromFloat(0.06))
	require.ErrorAs(t, err, &notFound)
}

func TestRejectLoanApplication(t *testing.T) {
	admin, bank, loan := newTestAdmin(t)
	acc := mustCreate(t, bank, "Asha Rao", 30, "savings", 1000)

	_, err := loan.SubmitApplication(acc, decimal.NewFromInt(50_000), 3)
	require.NoError(t, err)

	require.NoError(t, admin.RejectLoanApplication(acc.Number))
	assert.Empty(t, admin.PendingApplications())

	balance, err := bank.BalanceInquiry(acc.Number)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)), "rejection credits nothing")

	assert.ErrorIs(t, admin.RejectLoanApplication(acc.Number), models.ErrNoApplication)
}

func TestReactivateAuditsOnlyOnChange(t *testing.T) {
	admin, bank, _ := newTestAdmin(t)
	acc := mustCreate(t, bank, "Asha Rao", 30, "savings", 1000)

	reopened, err := admin.ReactivateAccount(acc.Number)
	require.NoError(t, err)
	assert.False(t, reopened)

	actions, err := admin.AdminActions()
	require.NoError(t, err)
	assert.NotContains(t, actions, "Reactivated")

	require.NoError(t, admin.ForceCloseAccount(acc.Number))
	reopened, err = admin.ReactivateAccount(acc.Number)
	require.NoError(t, err)
	assert.True(t, reopened)

	actions, err = admin.AdminActions()
	require.NoError(t, err)
	assert.Contains(t, actions, "Force-closed account")
	assert.Contains(t, actions, "Reactivated account")
}

// Filtering the log for account 101 must not return lines for 1011.
func TestTransactionLogsFilterIsFieldExact(t *testing.T) {
	log := testLogger()
	repo, err := repository.NewRepository(t.TempDir(), log)
	require.NoError(t, err)
	bank := NewBankingService(repo, log)
	loan := NewLoanService(repo, log)
	admin := NewAdminService(bank, loan, repo, log)

	short := decimal.NewFromInt(100)
	long := decimal.NewFromInt(200)
	require.NoError(t, repo.AppendTransaction(models.TransactionEntry{
		Timestamp: time.Now(), AccountNumber: 101, Operation: models.OpDeposit, Amount: &short, BalanceAfter: short,
	}))
	require.NoError(t, repo.AppendTransaction(models.TransactionEntry{
		Timestamp: time.Now(), AccountNumber: 1011, Operation: models.OpDeposit, Amount: &long, BalanceAfter: long,
	}))

	filtered, err := admin.TransactionLogs(101)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(filtered), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "| 101 |")

	unfiltered, err := admin.TransactionLogs(0)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(unfiltered), "\n"), 2)
}

func TestSummarize(t *testing.T) {
	admin, bank, loan := newTestAdmin(t)
	a := mustCreate(t, bank, "Asha Rao", 30, "savings", 500)
	b := mustCreate(t, bank, "Vikram Iyer", 45, "current", 1500)
	require.NoError(t, bank.TerminateAccount(b.Number))

	_, err := loan.TakeLoan(a, decimal.NewFromInt(10_000), 3)
	require.NoError(t, err)

	summary := admin.Summarize()
	assert.Equal(t, 2, summary.TotalAccounts)
	assert.Equal(t, 1, summary.ActiveAccounts)
	require.Len(t, summary.ActiveLoans, 1)
	assert.Equal(t, a.Number, summary.ActiveLoans[0].AccountNumber)
	assert.Equal(t, 0, summary.PendingApplications)
	// (500 + 0) / 2; the terminated account was drained.
	assert.True(t, summary.AverageBalance.Equal(decimal.NewFromInt(250)))
}

func TestAdminExportImport(t *testing.T) {
	admin, bank, _ := newTestAdmin(t)
	mustCreate(t, bank, "Asha Rao", 30, "savings", 500)

	path := t.TempDir() + "/accounts.csv"
	require.NoError(t, admin.ExportAccounts(path))
	require.NoError(t, admin.DeleteAllAccounts())

	n, err := admin.ImportAccounts(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	actions, err := admin.AdminActions()
	require.NoError(t, err)
	assert.Contains(t, actions, "Exported accounts")
	assert.Contains(t, actions, "Deleted all accounts")
	assert.Contains(t, actions, "Imported 1 accounts")
}
