// Package storage implements the ledger store on SQLite. The schema is owned
// by the embedded migrations; id assignment and single-record atomicity are
// delegated to SQLite, per the concurrency contract of the ledger ports.
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

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// ErrNotFound is returned by GetByID when no row matches.
var ErrNotFound = errors.New("transaction not found")

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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements ledger.TransactionWriter.
func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (type, category, amount_cents, date) VALUES (?, ?, ?, ?)`,
		string(tx.Type), tx.Category, tx.Amount.Cents, tx.Date.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"type", tx.Type,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.String())

	return tx, nil
}

// DeleteByID implements ledger.TransactionDeleter. Missing ids report
// found=false, never an error.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListAll implements ledger.TransactionLister.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, category, amount_cents, date FROM transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListByPeriod implements ledger.PeriodReader. The date column stores
// YYYY-MM-DD text, so a lexical range covers the calendar month exactly.
func (r *SQLiteRepository) ListByPeriod(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from, to := monthBounds(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, category, amount_cents, date FROM transactions
		 WHERE date >= ? AND date < ? ORDER BY date DESC, id DESC`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions by period: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListByTypeAndMonth implements ledger.PeriodReader.
func (r *SQLiteRepository) ListByTypeAndMonth(ctx context.Context, t core.TransactionType, year, month int) ([]core.Transaction, error) {
	from, to := monthBounds(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, category, amount_cents, date FROM transactions
		 WHERE type = ? AND date >= ? AND date < ?`,
		string(t), from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions by type and month: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// GetByID returns a single transaction, ErrNotFound when absent. Used by the
// sync worker to fetch the payload referenced by a queue message.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, type, category, amount_cents, date FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return tx, nil
}

// PendingSync describes a row that still has to be exported.
type PendingSync struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// ListPendingSync returns rows not yet exported, oldest first. Rows marked
// sync_error are included so the reconcile loop retries them.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM transactions
		 WHERE synced = 0 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var (
			p         PendingSync
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		// SQLite stores CURRENT_TIMESTAMP as UTC text
		if ts, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			p.CreatedAt = ts
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced flags a row as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError flags a row whose export failed; it stays pending for retry.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func monthBounds(year, month int) (string, string) {
	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month+1, 1) // time.Date normalizes month 13
	return from.String(), to.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		typ     string
		dateStr string
	)
	if err := row.Scan(&tx.ID, &typ, &tx.Category, &tx.Amount.Cents, &dateStr); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	tx.Date = d
	return tx, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
