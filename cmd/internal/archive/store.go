package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telecall/cmd/internal/callcenter"
	"telecall/cmd/internal/ids"
)

// ErrInvalidInput is returned for unusable store options or rows.
var ErrInvalidInput = errors.New("invalid_input")

// batchSize bounds how many upserts go into one pgx.Batch round trip.
const batchSize = 500

// Store mirrors exported call logs into PostgreSQL for reporting.
//
// The pgx pool is owned by the caller; Store never closes it. Identifiers are
// quoted with pgx.Identifier.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

// Option configures the store.
type Option func(*Store) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema (default "telecall").
func WithSchema(schema string) Option {
	return func(s *Store) error {
		schema = strings.TrimSpace(schema)
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("%w: invalid schema identifier %q", ErrInvalidInput, schema)
		}
		s.schema = schema
		return nil
	}
}

func NewStore(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	st := &Store{pool: pool, schema: "telecall"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrInvalidInput)
	}
	return st, nil
}

func (s *Store) Schema() string { return s.schema }

func (s *Store) ident(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// EnsureSchema creates the schema and tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	calls := s.ident("calls")
	runs := s.ident("archive_runs")

	ddl := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + runs + ` (
		   id TEXT PRIMARY KEY,
		   started_at TIMESTAMPTZ NOT NULL,
		   calls INTEGER NOT NULL,
		   CONSTRAINT chk_archive_runs_id_ulid_len CHECK (char_length(id) = 26)
		 )`,
		`CREATE TABLE IF NOT EXISTS ` + calls + ` (
		   call_id TEXT PRIMARY KEY,
		   run_id TEXT NOT NULL REFERENCES ` + runs + ` (id),
		   gym_id TEXT NOT NULL,
		   gym_name TEXT NULL,
		   telecaller_id TEXT NOT NULL,
		   telecaller_name TEXT NULL,
		   outcome TEXT NOT NULL,
		   remarks TEXT NULL,
		   follow_up_date DATE NULL,
		   called_at TIMESTAMPTZ NOT NULL,
		   archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`,
		`CREATE INDEX IF NOT EXISTS idx_calls_called_at ON ` + calls + ` (called_at)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_telecaller ON ` + calls + ` (telecaller_id, called_at)`,
	}
	for _, q := range ddl {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("archive.EnsureSchema: %w", err)
		}
	}
	return nil
}

// Run describes one archive import.
type Run struct {
	ID        string
	StartedAt time.Time
	Calls     int
}

// UpsertCalls stores calls under a new run id in one transaction. Rows are
// keyed by the backend call id, so re-archiving the same export is idempotent.
func (s *Store) UpsertCalls(ctx context.Context, calls []callcenter.Call, now time.Time) (Run, error) {
	const op = "archive.UpsertCalls"

	if len(calls) == 0 {
		return Run{}, fmt.Errorf("%s: %w: no calls", op, ErrInvalidInput)
	}
	for i, c := range calls {
		if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.GymID) == "" || c.CalledAt.IsZero() {
			return Run{}, fmt.Errorf("%s: %w: row %d is missing id, gym id or called_at", op, ErrInvalidInput, i)
		}
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	runID, err := ids.NewULID(now)
	if err != nil {
		return Run{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+s.ident("archive_runs")+` (id, started_at, calls) VALUES ($1, $2, $3)`,
		runID, now, len(calls),
	); err != nil {
		return Run{}, fmt.Errorf("%s: insert run: %w", op, err)
	}

	upsert := `INSERT INTO ` + s.ident("calls") + ` (
	     call_id, run_id, gym_id, gym_name, telecaller_id, telecaller_name,
	     outcome, remarks, follow_up_date, called_at
	   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::date, $10)
	   ON CONFLICT (call_id) DO UPDATE SET
	     run_id = EXCLUDED.run_id,
	     gym_name = EXCLUDED.gym_name,
	     telecaller_name = EXCLUDED.telecaller_name,
	     outcome = EXCLUDED.outcome,
	     remarks = EXCLUDED.remarks,
	     follow_up_date = EXCLUDED.follow_up_date,
	     archived_at = now()`

	for start := 0; start < len(calls); start += batchSize {
		chunk := calls[start:min(start+batchSize, len(calls))]

		b := &pgx.Batch{}
		for _, c := range chunk {
			b.Queue(upsert,
				c.ID,
				runID,
				c.GymID,
				nullable(c.GymName),
				c.TelecallerID,
				nullable(c.TelecallerName),
				string(c.Outcome),
				nullable(c.Remarks),
				nullable(c.FollowUpDate),
				c.CalledAt.UTC(),
			)
		}

		br := tx.SendBatch(ctx, b)
		for range chunk {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return Run{}, fmt.Errorf("%s: %w", op, err)
			}
		}
		if err := br.Close(); err != nil {
			return Run{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, err
	}
	return Run{ID: runID, StartedAt: now, Calls: len(calls)}, nil
}

// CountSince counts archived calls made at or after since.
func (s *Store) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM `+s.ident("calls")+` WHERE called_at >= $1`,
		since.UTC(),
	).Scan(&n)
	return n, err
}

// OutcomesSince groups archived calls made at or after since by outcome.
func (s *Store) OutcomesSince(ctx context.Context, since time.Time) (map[callcenter.Outcome]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT outcome, count(*) FROM `+s.ident("calls")+` WHERE called_at >= $1 GROUP BY outcome`,
		since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[callcenter.Outcome]int64{}
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[callcenter.Outcome(outcome)] = n
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
