/*
Package docstore is a small document database on SQLite.

Documents are JSON values addressed by (collection, id), mirroring the
hosted document database the data model was designed for. Collection
names keep their slash-separated paths. Queries filter on JSON fields via
json_extract; transactions run on a single SQL transaction.
*/
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// Store is a SQLite-backed document store.
type Store struct {
	db *sql.DB
}

// Document is a raw stored document.
type Document struct {
	ID        string
	Data      json.RawMessage
	UpdatedAt time.Time
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return nil
}

// Open opens or creates the store at path and runs migrations.
func Open(path string) (*Store, error) {
	// Transactions take the write lock on BEGIN and wait out other writers.
	dsn := path + "?_txlock=immediate"
	if strings.Contains(path, "?") {
		dsn = path + "&_txlock=immediate"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open docstore: %w", err)
	}
	// One connection serialises writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure docstore: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate docstore: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// NewID returns a fresh auto-generated document id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Get loads the document into dst.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	return get(ctx, s.db, collection, id, dst)
}

// Set writes v as the document, replacing any existing one.
func (s *Store) Set(ctx context.Context, collection, id string, v any) error {
	return set(ctx, s.db, collection, id, v)
}

// Create writes v only if no document with id exists.
func (s *Store) Create(ctx context.Context, collection, id string, v any) error {
	return create(ctx, s.db, collection, id, v)
}

// Add writes v under a generated id and returns it.
func (s *Store) Add(ctx context.Context, collection string, v any) (string, error) {
	id := NewID()
	if err := create(ctx, s.db, collection, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return del(ctx, s.db, collection, id)
}

// Query returns documents in collection matching q.
func (s *Store) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	where, args, err := buildWhere(collection, q.Where)
	if err != nil {
		return nil, err
	}

	stmt := `SELECT id, data, updated_at FROM documents WHERE ` + where
	switch {
	case q.OrderBy != "":
		if !fieldPattern.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("invalid order field %q", q.OrderBy)
		}
		stmt += ` ORDER BY json_extract(data, '$.` + q.OrderBy + `')`
	default:
		stmt += ` ORDER BY id`
	}
	if q.Desc {
		stmt += ` DESC`
	}
	if q.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var data string
		var updated int64
		if err := rows.Scan(&d.ID, &data, &updated); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		d.Data = json.RawMessage(data)
		d.UpdatedAt = time.UnixMilli(updated).UTC()
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Count returns the number of documents in collection matching filters.
func (s *Store) Count(ctx context.Context, collection string, filters ...Filter) (int64, error) {
	where, args, err := buildWhere(collection, filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// DeleteWhere removes every document in collection matching filters and
// returns how many were deleted.
func (s *Store) DeleteWhere(ctx context.Context, collection string, filters ...Filter) (int64, error) {
	where, args, err := buildWhere(collection, filters)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return res.RowsAffected()
}

// RunTransaction runs fn inside a transaction. If fn returns an error the
// transaction is rolled back and the error returned unchanged.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Tx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Tx is a document store transaction.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Get(ctx context.Context, collection, id string, dst any) error {
	return get(ctx, t.tx, collection, id, dst)
}

func (t *Tx) Set(ctx context.Context, collection, id string, v any) error {
	return set(ctx, t.tx, collection, id, v)
}

func (t *Tx) Create(ctx context.Context, collection, id string, v any) error {
	return create(ctx, t.tx, collection, id, v)
}

func (t *Tx) Delete(ctx context.Context, collection, id string) error {
	return del(ctx, t.tx, collection, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q execer, collection, id string, dst any) error {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func set(ctx context.Context, q execer, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	now := time.Now().UnixMilli()
	_, err = q.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func create(ctx context.Context, q execer, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	now := time.Now().UnixMilli()
	res, err := q.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO NOTHING`,
		collection, id, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	return nil
}

func del(ctx context.Context, q execer, collection, id string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id,
	); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}
