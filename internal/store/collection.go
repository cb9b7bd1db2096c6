// ABOUTME: Generic typed collection over a registry table storing one JSON document per record
// ABOUTME: Provides get/getAll/put/delete and secondary index scans without schema validation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// Key is the set of primary key types a collection can use.
type Key interface {
	~string | ~int64
}

// Collection is the typed accessor for one registered collection.
type Collection[K Key, T any] struct {
	def    CollectionDef
	q      querier
	logger *slog.Logger
}

func newCollection[K Key, T any](name string, a accessors) *Collection[K, T] {
	def := mustLookup(name)

	// Index columns introduced after the open version do not exist yet.
	indexes := make([]IndexDef, 0, len(def.Indexes))
	for _, idx := range def.Indexes {
		if idx.Since <= a.version {
			indexes = append(indexes, idx)
		}
	}
	def.Indexes = indexes

	return &Collection[K, T]{def: def, q: a.q, logger: a.logger}
}

// Def returns the registry definition backing the collection.
func (c *Collection[K, T]) Def() CollectionDef {
	return c.def
}

// GetAll returns every record in primary key order.
func (c *Collection[K, T]) GetAll(ctx context.Context) ([]T, error) {
	return c.query(ctx, fmt.Sprintf("SELECT doc FROM %s ORDER BY id", c.def.Table))
}

// Get returns the record stored under key, or ErrNotFound.
func (c *Collection[K, T]) Get(ctx context.Context, key K) (*T, error) {
	var doc string
	err := c.q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", c.def.Table), keyArg(key),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.def.Name, err)
	}

	var rec T
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", c.def.Name, err)
	}
	return &rec, nil
}

// GetAllByIndex returns every record whose indexed field equals value, in
// primary key order.
func (c *Collection[K, T]) GetAllByIndex(ctx context.Context, index string, value any) ([]T, error) {
	idx, ok := c.def.Index(index)
	if !ok {
		return nil, fmt.Errorf("%s has no index %q: %w", c.def.Name, index, ErrUnknownIndex)
	}
	return c.query(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE %s = ? ORDER BY id", c.def.Table, idx.Column), value)
}

// Put inserts or overwrites rec by key. Auto-keyed collections assign a key
// when the record's key is zero, and text-keyed collections assign a UUID when
// it is empty; in both cases the key is written back into rec.
func (c *Collection[K, T]) Put(ctx context.Context, rec *T) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", c.def.Name, err)
	}

	key, err := c.recordKey(doc)
	if err != nil {
		return err
	}

	if key == nil && c.def.Key == KeyText {
		id := uuid.New().String()
		if err := setField(rec, c.def.KeyField, id); err != nil {
			return err
		}
		if doc, err = json.Marshal(rec); err != nil {
			return fmt.Errorf("encoding %s record: %w", c.def.Name, err)
		}
		key = id
	}

	if key == nil {
		return c.insertAuto(ctx, rec, doc)
	}

	cols, vals, args := c.indexColumns(doc)
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (id, doc%s) VALUES (?, ?%s)", c.def.Table, cols, vals)
	if _, err := c.q.ExecContext(ctx, stmt, append([]any{key, string(doc)}, args...)...); err != nil {
		return fmt.Errorf("writing %s record: %w", c.def.Name, err)
	}

	c.logger.Debug("put record", "collection", c.def.Name, "key", key)
	return nil
}

// insertAuto inserts a record without a key and writes the assigned key back.
func (c *Collection[K, T]) insertAuto(ctx context.Context, rec *T, doc []byte) error {
	cols, vals, args := c.indexColumns(doc)
	stmt := fmt.Sprintf("INSERT INTO %s (doc%s) VALUES (?%s)", c.def.Table, cols, vals)
	res, err := c.q.ExecContext(ctx, stmt, append([]any{string(doc)}, args...)...)
	if err != nil {
		return fmt.Errorf("writing %s record: %w", c.def.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading %s key: %w", c.def.Name, err)
	}

	path := "$." + c.def.KeyField
	if _, err := c.q.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = json_set(doc, ?, ?) WHERE id = ?", c.def.Table), path, id, id,
	); err != nil {
		return fmt.Errorf("stamping %s key: %w", c.def.Name, err)
	}
	if err := setField(rec, c.def.KeyField, id); err != nil {
		return err
	}

	c.logger.Debug("inserted record", "collection", c.def.Name, "key", id)
	return nil
}

// Delete removes the record stored under key. Missing keys are not an error.
func (c *Collection[K, T]) Delete(ctx context.Context, key K) error {
	if _, err := c.q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.def.Table), keyArg(key),
	); err != nil {
		return fmt.Errorf("deleting %s record: %w", c.def.Name, err)
	}
	return nil
}

// Clear removes every record in the collection.
func (c *Collection[K, T]) Clear(ctx context.Context) error {
	if _, err := c.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", c.def.Table)); err != nil {
		return fmt.Errorf("clearing %s: %w", c.def.Name, err)
	}
	c.logger.Debug("cleared collection", "collection", c.def.Name)
	return nil
}

// Count returns the number of records in the collection.
func (c *Collection[K, T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", c.def.Table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.def.Name, err)
	}
	return n, nil
}

func (c *Collection[K, T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.def.Name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning %s record: %w", c.def.Name, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decoding %s record: %w", c.def.Name, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", c.def.Name, err)
	}
	return out, nil
}

// indexColumns returns the column list, placeholder list and arguments that
// extract every index value from doc.
func (c *Collection[K, T]) indexColumns(doc []byte) (string, string, []any) {
	var cols, vals strings.Builder
	args := make([]any, 0, len(c.def.Indexes))
	for _, idx := range c.def.Indexes {
		cols.WriteString(", " + idx.Column)
		vals.WriteString(", json_extract(?, '$." + idx.Name + "')")
		args = append(args, string(doc))
	}
	return cols.String(), vals.String(), args
}

// recordKey extracts the primary key from an encoded record. A nil key means
// the store must assign one.
func (c *Collection[K, T]) recordKey(doc []byte) (any, error) {
	if c.def.Key == KeySingleton {
		return c.def.SingletonKey, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("%s record is not an object: %w", c.def.Name, err)
	}
	raw, ok := fields[c.def.KeyField]
	if !ok || string(raw) == "null" {
		return nil, nil
	}

	if c.def.Key == KeyAuto {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("%s key %s is not an integer: %w", c.def.Name, raw, err)
		}
		if id == 0 {
			return nil, nil
		}
		return id, nil
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("%s key %s is not a string: %w", c.def.Name, raw, err)
	}
	if id == "" {
		return nil, nil
	}
	return id, nil
}

// setField writes one JSON field into rec by decoding a single-field object over it.
func setField[T any](rec *T, field string, value any) error {
	patch, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return fmt.Errorf("encoding key: %w", err)
	}
	if err := json.Unmarshal(patch, rec); err != nil {
		return fmt.Errorf("assigning key: %w", err)
	}
	return nil
}

func keyArg[K Key](key K) any {
	v := reflect.ValueOf(key)
	if v.Kind() == reflect.String {
		return v.String()
	}
	return v.Int()
}

// Singleton is the accessor for a collection holding one record under a fixed key.
type Singleton[T any] struct {
	c *Collection[string, T]
}

// Get returns the record, or ErrNotFound when it has never been written.
func (s *Singleton[T]) Get(ctx context.Context) (*T, error) {
	return s.c.Get(ctx, s.c.def.SingletonKey)
}

// Put overwrites the record.
func (s *Singleton[T]) Put(ctx context.Context, rec *T) error {
	return s.c.Put(ctx, rec)
}

// Delete removes the record. It is a no-op when none is stored.
func (s *Singleton[T]) Delete(ctx context.Context) error {
	return s.c.Delete(ctx, s.c.def.SingletonKey)
}
