// ABOUTME: Schema migrator that grows the store to a target version with check-then-create steps
// ABOUTME: Never drops or rewrites record documents; an interrupted run completes on the next open

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// migrate brings the schema to target and returns the resulting stored version.
// Opening at or below the stored version is a no-op.
func (s *SQLiteStore) migrate(ctx context.Context, target int) (int, error) {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		return 0, fmt.Errorf("creating schema_version: %w", err)
	}

	stored, err := storedVersion(ctx, s.db)
	if err != nil {
		return 0, err
	}
	if stored >= target {
		s.logger.Debug("schema up to date", "stored", stored, "target", target)
		return stored, nil
	}

	for _, def := range registry {
		if def.Since > target {
			continue
		}
		if def.Since > stored {
			if err := s.ensureTable(ctx, def, target); err != nil {
				return 0, err
			}
		}
		for _, idx := range def.Indexes {
			if idx.Since <= stored || idx.Since > target {
				continue
			}
			if err := s.ensureIndex(ctx, def, idx); err != nil {
				return 0, err
			}
		}
	}

	// Recorded last: until this row is written every step above re-runs.
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_version (id, version, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, updated_at = excluded.updated_at
	`, target, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("recording schema version: %w", err)
	}

	s.logger.Info("schema migrated", "from", stored, "to", target)
	return target, nil
}

func storedVersion(ctx context.Context, q querier) (int, error) {
	var version int
	err := q.QueryRowContext(ctx, `SELECT version FROM schema_version WHERE id = 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// ensureTable creates a collection table with every index column known at target.
func (s *SQLiteStore) ensureTable(ctx context.Context, def CollectionDef, target int) error {
	exists, err := s.tableExists(ctx, def.Table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	cols := []string{"id TEXT PRIMARY KEY"}
	if def.Key == KeyAuto {
		cols[0] = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	cols = append(cols, "doc TEXT NOT NULL")
	for _, idx := range def.Indexes {
		if idx.Since <= target {
			cols = append(cols, idx.Column+" "+idx.Type)
		}
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", def.Table, strings.Join(cols, ",\n\t"))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", def.Table, err)
	}
	s.logger.Info("applied migration", "table", def.Table, "collection", def.Name, "since", def.Since)
	return nil
}

// ensureIndex adds the index column when missing, backfills it from stored
// documents and creates the index, all in one transaction. The backfill only
// touches rows whose column is still NULL, so a column left unfilled by an
// earlier run is completed here.
func (s *SQLiteStore) ensureIndex(ctx context.Context, def CollectionDef, idx IndexDef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration of %s.%s: %w", def.Table, idx.Column, err)
	}
	defer func() { _ = tx.Rollback() }()

	var present int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM pragma_table_info(?) WHERE name = ?`, def.Table, idx.Column,
	).Scan(&present)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", def.Table, idx.Column, idx.Type)
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", idx.Column, def.Table, err)
		}
	case err != nil:
		return fmt.Errorf("checking %s.%s: %w", def.Table, idx.Column, err)
	}

	backfill := fmt.Sprintf("UPDATE %s SET %s = json_extract(doc, '$.%s') WHERE %s IS NULL AND json_extract(doc, '$.%s') IS NOT NULL",
		def.Table, idx.Column, idx.Name, idx.Column, idx.Name)
	res, err := tx.ExecContext(ctx, backfill)
	if err != nil {
		return fmt.Errorf("backfilling %s.%s: %w", def.Table, idx.Column, err)
	}
	n, _ := res.RowsAffected()

	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", def.Table, idx.Column, def.Table, idx.Column)
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating index on %s.%s: %w", def.Table, idx.Column, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration of %s.%s: %w", def.Table, idx.Column, err)
	}
	s.logger.Info("applied migration", "column", idx.Column, "table", def.Table, "backfilled", n)
	return nil
}

func (s *SQLiteStore) tableExists(ctx context.Context, table string) (bool, error) {
	var present int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&present)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return true, nil
}
