package repository

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/harshahs/digital-bank/internal/models"
)

var accountsHeader = []string{"account_number", "name", "age", "balance", "account_type", "status", "time", "pin"}

// LoadAccounts reads the full account table. A missing or unreadable file
// yields an empty map; malformed rows are skipped with a warning, never
// fatal, so one bad row cannot take the bank down.
func (r *Repository) LoadAccounts() map[int64]*models.Account {
	return r.loadAccountsFrom(r.accountsPath())
}

func (r *Repository) loadAccountsFrom(path string) map[int64]*models.Account {
	accounts := make(map[int64]*models.Account)
	rows, err := readCSV(path)
	if err != nil {
		r.log.Warnf("Could not read account table, starting empty: %v", err)
		return accounts
	}
	for _, row := range rows {
		acc, ok := parseAccountRow(row)
		if !ok {
			r.log.Warnf("Skipping malformed account row: %v", row)
			continue
		}
		accounts[acc.Number] = acc
	}
	return accounts
}

func parseAccountRow(row []string) (*models.Account, bool) {
	if len(row) < 6 {
		return nil, false
	}
	number, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil || number <= 0 {
		return nil, false
	}
	age, err := strconv.Atoi(row[2])
	if err != nil {
		return nil, false
	}
	balance, err := decimal.NewFromString(row[3])
	if err != nil {
		return nil, false
	}
	acc := &models.Account{
		Number:  number,
		Name:    row[1],
		Age:     age,
		Balance: balance,
		Type:    models.AccountType(row[4]),
		Status:  models.AccountStatus(row[5]),
	}
	if len(row) > 6 {
		acc.CreatedAt = row[6]
	}
	if len(row) > 7 {
		acc.PIN = row[7]
	}
	return acc, true
}

// SaveAccounts rewrites the whole account table from the in-memory state,
// ordered by account number so repeated saves produce identical files.
func (r *Repository) SaveAccounts(accounts map[int64]*models.Account) error {
	return r.saveAccountsTo(r.accountsPath(), accounts)
}

func (r *Repository) saveAccountsTo(path string, accounts map[int64]*models.Account) error {
	numbers := make([]int64, 0, len(accounts))
	for n := range accounts {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	rows := make([][]string, 0, len(accounts))
	for _, n := range numbers {
		acc := accounts[n]
		rows = append(rows, []string{
			strconv.FormatInt(acc.Number, 10),
			acc.Name,
			strconv.Itoa(acc.Age),
			acc.Balance.String(),
			string(acc.Type),
			string(acc.Status),
			acc.CreatedAt,
			acc.PIN,
		})
	}
	return writeCSV(path, accountsHeader, rows)
}

// ExportAccounts writes a copy of the account table to an arbitrary path,
// using the same schema as the live table.
func (r *Repository) ExportAccounts(path string, accounts map[int64]*models.Account) error {
	return r.saveAccountsTo(path, accounts)
}

// ImportAccounts reads an account table from an arbitrary path. Unlike
// LoadAccounts, the file must exist: an explicit import of a missing file is
// a caller mistake.
func (r *Repository) ImportAccounts(path string) (map[int64]*models.Account, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("import file not readable: %w", err)
	}
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	accounts := make(map[int64]*models.Account)
	for _, row := range rows {
		acc, ok := parseAccountRow(row)
		if !ok {
			r.log.Warnf("Skipping malformed account row on import: %v", row)
			continue
		}
		accounts[acc.Number] = acc
	}
	return accounts, nil
}
