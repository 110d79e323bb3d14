package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/ingest"
	"github.com/aaronukgarcia/prixsix/pkg/metrics"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore keeps documents in one table of a SQLite or Postgres database.
type SQLStore struct {
	db              *sql.DB
	driver          string
	maxOpenConns    int
	connMaxLifetime time.Duration
}

// OpenSQL opens or creates the documents database. For sqlite the dsn is a
// file path and its directory is created if needed.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{driver: driver, maxOpenConns: 10, connMaxLifetime: 30 * time.Minute}
	switch driver {
	case DriverSQLite:
		// a single writer avoids SQLITE_BUSY under concurrent imports
		s.maxOpenConns = 1
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			absPath, err := filepath.Abs(dsn)
			if err != nil {
				return nil, fmt.Errorf("resolve sqlite path: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
				return nil, fmt.Errorf("ensure sqlite dir: %w", err)
			}
			dsn = absPath
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	s.db = db

	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	scope TEXT NOT NULL DEFAULT '',
	seq INTEGER NOT NULL DEFAULT 0,
	payload TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(collection, scope, seq, id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create documents schema: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// Put upserts documents in one transaction.
func (s *SQLStore) Put(ctx context.Context, docs ...Document) error {
	defer observe("put", time.Now())
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
INSERT INTO documents (collection, id, scope, seq, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET
	scope = excluded.scope,
	seq = excluded.seq,
	payload = excluded.payload,
	updated_at = excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("prepare put: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range docs {
		payload, err := json.Marshal(d.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", d.Collection, d.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, d.Collection, d.ID, d.Scope, d.Seq, string(payload), now); err != nil {
			return fmt.Errorf("put %s/%s: %w", d.Collection, d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

// Get returns one document.
func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	defer observe("get", time.Now())
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT collection, id, scope, seq, payload FROM documents WHERE collection = ? AND id = ?"),
		collection, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return d, nil
}

// List returns documents ordered by seq then id.
func (s *SQLStore) List(ctx context.Context, collection, scope string, offset, limit int) ([]Document, error) {
	defer observe("list", time.Now())
	if limit <= 0 {
		limit = math.MaxInt32
	}
	if offset < 0 {
		offset = 0
	}
	query := "SELECT collection, id, scope, seq, payload FROM documents WHERE collection = ?"
	args := []any{collection}
	if scope != "" {
		query += " AND scope = ?"
		args = append(args, scope)
	}
	query += " ORDER BY seq, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return out, nil
}

// Count returns the number of matching documents.
func (s *SQLStore) Count(ctx context.Context, collection, scope string) (int, error) {
	defer observe("count", time.Now())
	query := "SELECT COUNT(*) FROM documents WHERE collection = ?"
	args := []any{collection}
	if scope != "" {
		query += " AND scope = ?"
		args = append(args, scope)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Scopes returns distinct scopes in a collection.
func (s *SQLStore) Scopes(ctx context.Context, collection string) ([]string, error) {
	defer observe("scopes", time.Now())
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT DISTINCT scope FROM documents WHERE collection = ? AND scope <> '' ORDER BY scope"), collection)
	if err != nil {
		return nil, fmt.Errorf("scopes %s: %w", collection, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		out = append(out, scope)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (Document, error) {
	var (
		d       Document
		payload string
	)
	if err := sc.Scan(&d.Collection, &d.ID, &d.Scope, &d.Seq, &payload); err != nil {
		return Document{}, err
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var rec ingest.Record
	if err := dec.Decode(&rec); err != nil {
		return Document{}, fmt.Errorf("decode payload %s/%s: %w", d.Collection, d.ID, err)
	}
	d.Payload = rec
	return d, nil
}
