package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finledger/internal/core"
)

const dateLayout = "2006-01-02"

var ErrNotFound = errors.New("transaction not found")

// SQLiteRepository is the append-only transaction store. It assigns IDs and
// created_at stamps on insert; rows are never updated or deleted, only the
// export-tracking flags change after the fact.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.TransactionWriter.
func (r *SQLiteRepository) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}

	id := uuid.NewString()
	createdAt := r.now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, amount_cents, reason, category, counterparty, occurred_date, occurred_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(tx.Kind), tx.Amount.Cents, tx.Reason, string(tx.Category),
		tx.Counterparty, tx.Date.Format(dateLayout), tx.TimeOfDay, createdAt)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"date", tx.Date.Format(dateLayout))

	return id, nil
}

// Snapshot implements ledger.LedgerReader. Rows come back in display order
// (occurred date descending, then created_at descending); the aggregation
// core is order-independent either way.
func (r *SQLiteRepository) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, amount_cents, reason, category, counterparty, occurred_date, occurred_time, created_at
		FROM transactions
		ORDER BY occurred_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Get implements ledger.TransactionGetter.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, amount_cents, reason, category, counterparty, occurred_date, occurred_time, created_at
		FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// PendingExport is the minimal row needed to drive the CSV export queue.
type PendingExport struct {
	ID        string
	CreatedAt time.Time
}

// GetPendingExports returns transactions not yet written to the export file,
// oldest first so the CSV keeps insertion order.
func (r *SQLiteRepository) GetPendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE exported = 0
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending exports: %w", err)
	}
	return out, nil
}

// MarkExported records that a transaction reached the export file.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = 1, export_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError flags a transaction whose export attempt failed so the
// periodic sweep retries it.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		kind      string
		cents     int64
		category  string
		occurred  string
		createdAt time.Time
	)
	err := row.Scan(&tx.ID, &kind, &cents, &tx.Reason, &category, &tx.Counterparty, &occurred, &tx.TimeOfDay, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Kind = core.Kind(kind)
	tx.Amount = core.Money{Cents: cents}
	tx.Category = core.Category(category)
	tx.CreatedAt = createdAt

	day, err := time.Parse(dateLayout, occurred)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_date %q: %w", occurred, err)
	}
	tx.Date = core.DateOf(day)

	return tx, nil
}
