package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Export bookkeeping states for the spreadsheet mirror.
const (
	ExportPending = "pending"
	ExportSynced  = "synced"
	ExportError   = "error"
)

// SQLiteStore persists transactions for authenticated owners.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
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

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create implements RecordStore.
func (s *SQLiteStore) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.Owner == "" {
		return core.Transaction{}, ErrNoOwner
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (owner, source, amount_cents, type, date, description, created_at, export_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Owner, tx.Source, tx.Amount.Cents, string(tx.Type), tx.Date.String(), tx.Description, now, ExportPending)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	stored := tx
	stored.ID = strconv.FormatInt(id, 10)
	stored.CreatedAt = now

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", stored.ID,
		"owner", stored.Owner,
		"type", stored.Type,
		"amount_cents", stored.Amount.Cents,
		"date", stored.Date.String())

	return stored, nil
}

// List implements RecordStore. Records come back newest first by date, then
// by creation time.
func (s *SQLiteStore) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, source, amount_cents, type, date, description, created_at
		 FROM transactions
		 WHERE owner = ?
		 ORDER BY date DESC, created_at DESC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
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

// Delete implements RecordStore. The owner predicate keeps one user from
// removing another's record; a miss on either column is the same ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, id, owner string) error {
	if owner == "" {
		return ErrNoOwner
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "owner", owner)
	return nil
}

// Get retrieves a single transaction by id regardless of owner. Used by the
// export worker, never by request handlers.
func (s *SQLiteStore) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, source, amount_cents, type, date, description, created_at
		 FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// GetPendingExport returns up to limit transactions not yet mirrored to the
// export ledger, oldest first.
func (s *SQLiteStore) GetPendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, source, amount_cents, type, date, description, created_at
		 FROM transactions
		 WHERE export_status = ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export: %w", err)
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
	return out, rows.Err()
}

// MarkExported marks a transaction as successfully mirrored.
func (s *SQLiteStore) MarkExported(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = ? WHERE id = ?`, ExportSynced, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

// MarkExportError marks a transaction whose mirror attempt failed.
func (s *SQLiteStore) MarkExportError(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = ? WHERE id = ?`, ExportError, id); err != nil {
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
		id        int64
		tx        core.Transaction
		typ       string
		dateStr   string
		createdAt time.Time
	)
	err := row.Scan(&id, &tx.Owner, &tx.Source, &tx.Amount.Cents, &typ, &dateStr, &tx.Description, &createdAt)
	if err == sql.ErrNoRows {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.ID = strconv.FormatInt(id, 10)
	tx.Type = core.TransactionType(typ)
	tx.CreatedAt = createdAt
	// A malformed date in storage yields a zero Date; the record stays
	// listable but drops out of aggregation.
	if d, perr := core.ParseDate(dateStr); perr == nil {
		tx.Date = d
	}
	return tx, nil
}
