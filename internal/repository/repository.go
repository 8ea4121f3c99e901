package repository

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Repository provides flat-file persistence for the bank: CSV tables for
// accounts, loans and loan applications, plus append-only pipe-delimited
// logs for transactions and admin actions. Every save rewrites the whole
// table; the store assumes a single writer process.
type Repository struct {
	dir string
	log *logrus.Logger
}

// NewRepository initializes a repository rooted at dir, creating the data
// directory if needed.
func NewRepository(dir string, log *logrus.Logger) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Repository{dir: dir, log: log}, nil
}

func (r *Repository) accountsPath() string     { return filepath.Join(r.dir, "accounts.csv") }
func (r *Repository) loansPath() string        { return filepath.Join(r.dir, "loans.csv") }
func (r *Repository) applicationsPath() string { return filepath.Join(r.dir, "loan_applications.csv") }
func (r *Repository) transactionsPath() string { return filepath.Join(r.dir, "transactions.log") }
func (r *Repository) adminActionsPath() string { return filepath.Join(r.dir, "admin_actions.log") }

// writeCSV rewrites a CSV table atomically: the rows go to a temp file that
// replaces the target via rename, so a crash mid-write leaves the previous
// table intact.
func writeCSV(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// readCSV loads a CSV table. A missing file is not an error: the bank starts
// empty. Rows shorter than the header are dropped.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

// appendLine appends one line to an append-only log file.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}

// readAll returns the full contents of a log file, or "" if it does not
// exist yet.
func readAll(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
