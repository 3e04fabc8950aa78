// Package readinglog stores completed readings in PostgreSQL.
//
// The log is optional: the server runs without it when no DSN is configured.
// [PostgresStore] satisfies listen.Recorder so sessions write to it directly
// at completion time.
package readinglog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/starcue/internal/listen"
	"github.com/MrWong99/starcue/internal/observe"
	"github.com/MrWong99/starcue/internal/reading"
)

// Schema is the SQL DDL for the readings table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS readings (
    id          BIGSERIAL PRIMARY KEY,
    session_id  TEXT NOT NULL,
    trimester   TEXT NOT NULL,
    red         TEXT NOT NULL,
    economic    TEXT NOT NULL,
    month       INTEGER NOT NULL,
    base_day    INTEGER NOT NULL,
    red_last    BOOLEAN NOT NULL DEFAULT false,
    line_a      JSONB NOT NULL,
    line_b      JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_readings_session ON readings(session_id);
CREATE INDEX IF NOT EXISTS idx_readings_created ON readings(created_at DESC);
`

// MaxRecent caps the limit accepted by [PostgresStore.Recent].
const MaxRecent = 500

// ErrInvalidLimit is returned by Recent for non-positive limits.
var ErrInvalidLimit = errors.New("readinglog: limit must be positive")

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Pinger is implemented by *pgxpool.Pool and *pgx.Conn.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Entry is one stored reading.
type Entry struct {
	ID        int64
	SessionID string
	Reading   reading.Reading
	CreatedAt time.Time
}

// PostgresStore writes and lists readings.
type PostgresStore struct {
	db      DB
	metrics *observe.Metrics
}

var _ listen.Recorder = (*PostgresStore)(nil)

// Option configures a [PostgresStore].
type Option func(*PostgresStore)

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *PostgresStore) { s.metrics = m }
}

// NewPostgresStore creates a store on db. Call [PostgresStore.Migrate] before
// the first write.
func NewPostgresStore(db DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Migrate executes [Schema].
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("readinglog: migrate: %w", err)
	}
	return nil
}

// Ping checks connectivity when the underlying DB supports it. It is used as
// a readiness check.
func (s *PostgresStore) Ping(ctx context.Context) error {
	p, ok := s.db.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("readinglog: ping: %w", err)
	}
	return nil
}

// Record inserts r for sessionID.
func (s *PostgresStore) Record(ctx context.Context, sessionID string, r reading.Reading) error {
	ctx, span := observe.StartSpan(ctx, "readinglog.record",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	err := s.insert(ctx, sessionID, r)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert reading")
		observe.Logger(ctx).Warn("readinglog: record failed", "session_id", sessionID, "err", err)
	} else {
		observe.Logger(ctx).Debug("readinglog: reading recorded", "session_id", sessionID, "a", r.A.String())
	}
	s.metrics.RecordReadingWrite(ctx, status)
	return err
}

func (s *PostgresStore) insert(ctx context.Context, sessionID string, r reading.Reading) error {
	if r.Words.Trimester == "" || r.Words.Red == "" || r.Words.Economic == "" {
		return fmt.Errorf("readinglog: record: %w", reading.ErrIncomplete)
	}
	lineA, err := json.Marshal(r.A)
	if err != nil {
		return fmt.Errorf("readinglog: marshal line_a: %w", err)
	}
	lineB, err := json.Marshal(r.B)
	if err != nil {
		return fmt.Errorf("readinglog: marshal line_b: %w", err)
	}

	const query = `
		INSERT INTO readings (
			session_id, trimester, red, economic,
			month, base_day, red_last, line_a, line_b
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = s.db.Exec(ctx, query,
		sessionID, r.Words.Trimester, r.Words.Red, r.Words.Economic,
		r.Month, r.BaseDay, r.RedLast, lineA, lineB,
	)
	if err != nil {
		return fmt.Errorf("readinglog: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit readings, newest first. Limits above
// [MaxRecent] are clamped.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	limit = min(limit, MaxRecent)

	const query = `
		SELECT id, session_id, trimester, red, economic,
		       month, base_day, red_last, line_a, line_b, created_at
		FROM readings
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("readinglog: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			lineA, lineB []byte
		)
		if err := rows.Scan(
			&e.ID, &e.SessionID,
			&e.Reading.Words.Trimester, &e.Reading.Words.Red, &e.Reading.Words.Economic,
			&e.Reading.Month, &e.Reading.BaseDay, &e.Reading.RedLast,
			&lineA, &lineB, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("readinglog: scan: %w", err)
		}
		if err := json.Unmarshal(lineA, &e.Reading.A); err != nil {
			return nil, fmt.Errorf("readinglog: unmarshal line_a of %d: %w", e.ID, err)
		}
		if err := json.Unmarshal(lineB, &e.Reading.B); err != nil {
			return nil, fmt.Errorf("readinglog: unmarshal line_b of %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("readinglog: rows: %w", err)
	}
	return entries, nil
}

// CountBySign returns how many stored readings have line A in each sign.
func (s *PostgresStore) CountBySign(ctx context.Context) (map[reading.Sign]int, error) {
	const query = `
		SELECT line_a->>'sign' AS sign, count(*)
		FROM readings
		GROUP BY 1`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("readinglog: count by sign: %w", err)
	}
	defer rows.Close()

	counts := make(map[reading.Sign]int)
	for rows.Next() {
		var (
			sign string
			n    int64
		)
		if err := rows.Scan(&sign, &n); err != nil {
			return nil, fmt.Errorf("readinglog: scan: %w", err)
		}
		counts[reading.Sign(sign)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("readinglog: rows: %w", err)
	}
	return counts, nil
}
