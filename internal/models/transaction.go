package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OpKind is the operation tag of a transaction-log entry.
type OpKind string

const (
	OpCreate       OpKind = "CREATE"
	OpDeposit      OpKind = "DEPOSIT"
	OpWithdraw     OpKind = "WITHDRAW"
	OpWithdrawFull OpKind = "WITHDRAW_FULL"
	OpClose        OpKind = "CLOSE"
	OpTransferIn   OpKind = "TRANSFER_IN"
	OpTransferOut  OpKind = "TRANSFER_OUT"
	OpLoanCredit   OpKind = "LOAN_CREDIT"
)

// TransactionEntry is one append-only line of the transaction log. Amount is
// nil for entries that carry no amount (CLOSE).
type TransactionEntry struct {
	Timestamp     time.Time        `json:"timestamp"`
	AccountNumber int64            `json:"account_number"`
	Operation     OpKind           `json:"operation"`
	Amount        *decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal  `json:"balance_after"`
}

// Line renders the entry in the persisted pipe-delimited form:
//
//	2025-01-02 15:04:05 | 1001 | DEPOSIT | 500 | 1500
func (e TransactionEntry) Line() string {
	amount := "-"
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	return fmt.Sprintf("%s | %d | %s | %s | %s",
		e.Timestamp.Format(TimestampLayout), e.AccountNumber, e.Operation, amount, e.BalanceAfter)
}

// ParseTransactionLine parses one log line. Fields are split on the pipe
// delimiter and trimmed; a substring match would confuse account 101 with
// 1011, so every lookup goes through this parser.
func ParseTransactionLine(line string) (TransactionEntry, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 5 {
		return TransactionEntry{}, fmt.Errorf("malformed transaction line: %q", line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	ts, err := time.ParseInLocation(TimestampLayout, parts[0], time.Local)
	if err != nil {
		return TransactionEntry{}, fmt.Errorf("bad timestamp in transaction line: %w", err)
	}
	acc, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return TransactionEntry{}, fmt.Errorf("bad account number in transaction line: %w", err)
	}
	balance, err := decimal.NewFromString(parts[4])
	if err != nil {
		return TransactionEntry{}, fmt.Errorf("bad balance in transaction line: %w", err)
	}

	entry := TransactionEntry{
		Timestamp:     ts,
		AccountNumber: acc,
		Operation:     OpKind(parts[2]),
		BalanceAfter:  balance,
	}
	// "None" is what the earlier CSV tooling wrote for missing amounts.
	if parts[3] != "-" && parts[3] != "None" && parts[3] != "" {
		amount, err := decimal.NewFromString(parts[3])
		if err != nil {
			return TransactionEntry{}, fmt.Errorf("bad amount in transaction line: %w", err)
		}
		entry.Amount = &amount
	}
	return entry, nil
}
