// ABOUTME: SQLite-backed collection store using modernc.org/sqlite
// ABOUTME: Opens the database, runs schema migrations and provides transaction scopes

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore is the process-wide handle to the collection store.
// Accessor methods outside Update run as their own short transactions.
type SQLiteStore struct {
	accessors
	db   *sql.DB
	path string
}

// Tx exposes the collection accessors bound to one transaction.
type Tx struct {
	accessors
}

// Updater runs a read-modify-write scope.
type Updater interface {
	Update(ctx context.Context, fn func(tx *Tx) error) error
}

// NewSQLiteStore opens the store at path and migrates it to CurrentVersion.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return Open(path, CurrentVersion)
}

// Open opens the store at path and migrates it to targetVersion.
// Parent directories are created if needed. Any failure here is fatal for
// the caller: the returned error wraps ErrOpen.
func Open(path string, targetVersion int) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if targetVersion < 1 || targetVersion > CurrentVersion {
		return nil, fmt.Errorf("%w: %w: %d (supported 1-%d)", ErrOpen, ErrUnsupportedVersion, targetVersion, CurrentVersion)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating database directory: %w", ErrOpen, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", ErrOpen, err)
	}

	// Single writer: one connection keeps transactions and pragmas on the same handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling WAL mode: %w", ErrOpen, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %w", ErrOpen, err)
	}

	s := &SQLiteStore{
		accessors: accessors{q: db, logger: logger},
		db:        db,
		path:      path,
	}

	ctx := context.Background()
	version, err := s.migrate(ctx, targetVersion)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", ErrOpen, err)
	}
	s.accessors.version = version

	logger.Info("SQLite store initialized", "path", path, "version", version)
	return s, nil
}

// Update runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise. fn must only use tx while it runs.
func (s *SQLiteStore) Update(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	tx := &Tx{accessors: accessors{q: sqlTx, logger: s.logger, version: s.version}}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Version returns the schema version recorded in the database.
func (s *SQLiteStore) Version(ctx context.Context) (int, error) {
	return storedVersion(ctx, s.db)
}

// Tables returns the names of all user tables, sorted.
func (s *SQLiteStore) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction unless q is already one.
func withTx(ctx context.Context, q querier, fn func(q querier) error) error {
	db, ok := q.(*sql.DB)
	if !ok {
		return fn(q)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

var (
	_ Accessor = (*SQLiteStore)(nil)
	_ Accessor = (*Tx)(nil)
	_ Updater  = (*SQLiteStore)(nil)
)
