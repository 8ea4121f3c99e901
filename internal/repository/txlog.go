package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harshahs/digital-bank/internal/models"
)

// AppendTransaction appends one entry to the transaction log. The log is the
// audit trail and the source for daily-limit and history queries; it is
// never truncated or rewritten.
func (r *Repository) AppendTransaction(entry models.TransactionEntry) error {
	return appendLine(r.transactionsPath(), entry.Line())
}

// TodayTotal sums the amounts of op-kind entries logged for the account on
// the given day. It scans the whole log; fine at this scale, revisit if the
// log ever grows past a classroom-sized ledger.
func (r *Repository) TodayTotal(account int64, op models.OpKind, day time.Time) decimal.Decimal {
	total := decimal.Zero
	dayPrefix := day.Format("2006-01-02")
	for _, entry := range r.scanTransactions() {
		if entry.AccountNumber != account || entry.Operation != op {
			continue
		}
		if entry.Timestamp.Format("2006-01-02") != dayPrefix {
			continue
		}
		if entry.Amount != nil {
			total = total.Add(*entry.Amount)
		}
	}
	return total
}

// AccountHistory returns all log entries for the account, oldest first.
func (r *Repository) AccountHistory(account int64) ([]models.TransactionEntry, error) {
	var history []models.TransactionEntry
	for _, entry := range r.scanTransactions() {
		if entry.AccountNumber == account {
			history = append(history, entry)
		}
	}
	return history, nil
}

// ReadTransactions returns the raw transaction log.
func (r *Repository) ReadTransactions() (string, error) {
	return readAll(r.transactionsPath())
}

func (r *Repository) scanTransactions() []models.TransactionEntry {
	raw, err := readAll(r.transactionsPath())
	if err != nil {
		r.log.Warnf("Could not read transaction log: %v", err)
		return nil
	}
	var entries []models.TransactionEntry
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := models.ParseTransactionLine(line)
		if err != nil {
			r.log.Warnf("Skipping malformed transaction line: %v", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// AppendAdminAction records an administrative action in the audit sink.
func (r *Repository) AppendAdminAction(description string) error {
	line := fmt.Sprintf("%s | %s", time.Now().Format(models.TimestampLayout), description)
	return appendLine(r.adminActionsPath(), line)
}

// ReadAdminActions returns the raw admin action log.
func (r *Repository) ReadAdminActions() (string, error) {
	return readAll(r.adminActionsPath())
}
