package repository

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/harshahs/digital-bank/internal/models"
)

var (
	loansHeader        = []string{"account_number", "name", "principal", "pending", "years", "rate", "status"}
	applicationsHeader = []string{"account_number", "name", "principal", "years", "requested_at"}
)

// LoadLoans reads the loan table. Missing file or malformed rows degrade to
// an empty/partial map, same contract as LoadAccounts.
func (r *Repository) LoadLoans() map[int64]*models.Loan {
	loans := make(map[int64]*models.Loan)
	rows, err := readCSV(r.loansPath())
	if err != nil {
		r.log.Warnf("Could not read loan table, starting empty: %v", err)
		return loans
	}
	for _, row := range rows {
		if len(row) < 7 {
			r.log.Warnf("Skipping malformed loan row: %v", row)
			continue
		}
		number, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		principal, err1 := decimal.NewFromString(row[2])
		pending, err2 := decimal.NewFromString(row[3])
		years, err3 := strconv.Atoi(row[4])
		rate, err4 := decimal.NewFromString(row[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			r.log.Warnf("Skipping malformed loan row: %v", row)
			continue
		}
		loans[number] = &models.Loan{
			AccountNumber: number,
			Name:          row[1],
			Principal:     principal,
			Pending:       pending,
			Years:         years,
			Rate:          rate,
			Status:        models.LoanStatus(row[6]),
		}
	}
	return loans
}

// SaveLoans rewrites the loan table.
func (r *Repository) SaveLoans(loans map[int64]*models.Loan) error {
	numbers := sortedKeys(loans)
	rows := make([][]string, 0, len(loans))
	for _, n := range numbers {
		l := loans[n]
		rows = append(rows, []string{
			strconv.FormatInt(l.AccountNumber, 10),
			l.Name,
			l.Principal.String(),
			l.Pending.String(),
			strconv.Itoa(l.Years),
			l.Rate.String(),
			string(l.Status),
		})
	}
	return writeCSV(r.loansPath(), loansHeader, rows)
}

// LoadApplications reads the pending loan applications.
func (r *Repository) LoadApplications() map[int64]*models.LoanApplication {
	apps := make(map[int64]*models.LoanApplication)
	rows, err := readCSV(r.applicationsPath())
	if err != nil {
		r.log.Warnf("Could not read application table, starting empty: %v", err)
		return apps
	}
	for _, row := range rows {
		if len(row) < 5 {
			r.log.Warnf("Skipping malformed application row: %v", row)
			continue
		}
		number, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		principal, err1 := decimal.NewFromString(row[2])
		years, err2 := strconv.Atoi(row[3])
		if err1 != nil || err2 != nil {
			r.log.Warnf("Skipping malformed application row: %v", row)
			continue
		}
		apps[number] = &models.LoanApplication{
			AccountNumber: number,
			Name:          row[1],
			Principal:     principal,
			Years:         years,
			RequestedAt:   row[4],
		}
	}
	return apps
}

// SaveApplications rewrites the application table.
func (r *Repository) SaveApplications(apps map[int64]*models.LoanApplication) error {
	numbers := sortedKeys(apps)
	rows := make([][]string, 0, len(apps))
	for _, n := range numbers {
		a := apps[n]
		rows = append(rows, []string{
			strconv.FormatInt(a.AccountNumber, 10),
			a.Name,
			a.Principal.String(),
			strconv.Itoa(a.Years),
			a.RequestedAt,
		})
	}
	return writeCSV(r.applicationsPath(), applicationsHeader, rows)
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
