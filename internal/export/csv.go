// Package export appends transactions to the legacy CSV ledger file. The
// column layout matches the original dashboard's data.csv so existing
// spreadsheets keep working.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"finledger/internal/core"
)

var header = []string{"type", "amount", "reason", "category", "where", "date", "time"}

const dateLayout = "2006-01-02"

// CSVWriter appends transaction rows to a CSV file, writing the header when
// the file is new. Safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

func NewCSVWriter(path string) (*CSVWriter, error) {
	if path == "" {
		return nil, errors.New("csv path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}
	return &CSVWriter{path: path}, nil
}

// Append writes one transaction row to the end of the file.
func (w *CSVWriter) Append(ctx context.Context, tx core.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat export file: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	if err := cw.Write(rowOf(tx)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}

	slog.InfoContext(ctx, "Appended transaction to CSV export",
		"id", tx.ID, "file", w.path)

	return nil
}

func rowOf(tx core.Transaction) []string {
	return []string{
		legacyKind(tx.Kind),
		tx.Amount.String(),
		tx.Reason,
		string(tx.Category),
		tx.Counterparty,
		tx.Date.Format(dateLayout),
		tx.TimeOfDay,
	}
}

// legacyKind maps to the capitalized spellings the original file used.
func legacyKind(k core.Kind) string {
	switch k {
	case core.KindIncome:
		return "Income"
	case core.KindExpense:
		return "Expense"
	default:
		return string(k)
	}
}

// ReadFile parses a legacy CSV ledger into transactions. Categories outside
// the known set fall back to Other, matching how the dashboard buckets them.
func ReadFile(path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	// Skip the header row if present
	first, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var txs []core.Transaction
	if first[0] != header[0] {
		tx, err := parseRow(first)
		if err != nil {
			return nil, fmt.Errorf("row 1: %w", err)
		}
		txs = append(txs, tx)
	}

	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		tx, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func parseRow(record []string) (core.Transaction, error) {
	kind, err := core.ParseKind(record[0])
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseDecimalToCents(record[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", record[1], err)
	}

	category, err := core.ParseCategory(record[3])
	if err != nil {
		category = core.CategoryOther
	}

	day, err := time.Parse(dateLayout, record[5])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", record[5], err)
	}

	// Legacy files store seconds; keep hour and minute only
	timeOfDay := record[6]
	if t, err := time.Parse("15:04:05", timeOfDay); err == nil {
		timeOfDay = t.Format("15:04")
	}

	return core.Transaction{
		Kind:         kind,
		Amount:       core.Money{Cents: cents},
		Reason:       record[2],
		Category:     category,
		Counterparty: record[4],
		Date:         core.DateOf(day),
		TimeOfDay:    timeOfDay,
	}, nil
}
