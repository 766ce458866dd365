package history

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore persists history in a single history_records table on SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	dsn     string
	clock   ports.Clock
}

// OpenSQLite opens (or creates) a SQLite database at path, defaulting to ~/.promptsmith/history.db.
func OpenSQLite(ctx context.Context, path string, clock ports.Clock) (*SQLStore, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, DialectSQLite, path, clock)
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string, clock ports.Clock) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres history backend requires a dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQLStore(ctx, db, DialectPostgres, dsn, clock)
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, dsn string, clock ports.Clock) (*SQLStore, error) {
	if clock == nil {
		clock = ports.SystemClock
	}
	store := &SQLStore{db: db, dialect: dialect, dsn: dsn, clock: clock}
	if err := store.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history_records (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			model TEXT NOT NULL,
			summary TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS history_records_created_at ON history_records (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init history schema: %w", err)
		}
	}
	return nil
}

// Append inserts a record. Appending an existing id replaces it.
func (s *SQLStore) Append(ctx context.Context, record domain.HistoryRecord) error {
	query := `INSERT INTO history_records (id, kind, created_at, model, summary, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET kind = excluded.kind, created_at = excluded.created_at,
			model = excluded.model, summary = excluded.summary, payload = excluded.payload`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		record.ID,
		string(record.Kind),
		record.Timestamp.UnixNano(),
		record.Model,
		record.Summary,
		string(record.Payload),
	)
	return err
}

// List returns matching records, newest first.
func (s *SQLStore) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT id, kind, created_at, model, summary, payload FROM history_records")
	var where []string
	var args []interface{}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		where = append(where, "(LOWER(summary) LIKE ? OR LOWER(model) LIKE ?)")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	if len(where) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(where, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC LIMIT ?")
	args = append(args, filter.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, s.rebind(builder.String()), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var kind, payload string
		var created int64
		if err := rows.Scan(&rec.ID, &kind, &created, &rec.Model, &rec.Summary, &payload); err != nil {
			return nil, err
		}
		rec.Kind = domain.HistoryKind(kind)
		rec.Timestamp = time.Unix(0, created).UTC()
		rec.Payload = []byte(payload)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one record and reports whether it existed.
func (s *SQLStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM history_records WHERE id = ?"), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear deletes all history entries.
func (s *SQLStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM history_records")
	return err
}

// PruneOlderThan deletes records older than days. Zero or negative days is a no-op.
func (s *SQLStore) PruneOlderThan(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := cutoffFor(s.clock, days)
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM history_records WHERE created_at < ?"), cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Location returns the sqlite path, or the postgres dsn with any password masked.
func (s *SQLStore) Location() string {
	if s.dialect != DialectPostgres {
		return s.dsn
	}
	return string(s.dialect) + " " + redactDSN(s.dsn)
}

// redactDSN masks the password in URL and key=value connection strings.
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return u.Redacted()
	}
	fields := strings.Fields(dsn)
	for i, field := range fields {
		if strings.HasPrefix(strings.ToLower(field), "password=") {
			fields[i] = "password=xxxxx"
		}
	}
	return strings.Join(fields, " ")
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
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

var _ ports.HistoryStore = (*SQLStore)(nil)
