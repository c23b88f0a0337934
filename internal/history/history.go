package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mesctx/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Store records every context request for audit queries. The store is
// optional: a nil *Store is valid and turns every method into a no-op,
// so deployments without a database lose nothing but the audit trail.
type Store struct {
	conn *pgxpool.Pool
}

// Request is one recorded context assembly. FilledSlots holds
// "role=entity-id" pairs for every slot the aggregator resolved.
type Request struct {
	ID            int64     `json:"id"`
	StartID       string    `json:"start_id"`
	CorrelationID string    `json:"correlation_id"`
	RequestedBy   string    `json:"requested_by"`
	FilledSlots   []string  `json:"filled_slots"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewStore connects to the database and runs pending migrations. An
// empty databaseURL disables the store.
func NewStore(ctx context.Context, databaseURL string, migrationsDir string) (*Store, error) {
	if databaseURL == "" {
		logger.Info("[History] DATABASE_URL not set, audit trail disabled")
		return nil, nil
	}

	m, err := migrate.New("file://"+migrationsDir, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("[History] Audit trail enabled")
	return &Store{conn: conn}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.conn.Close()
}

// Record inserts one context request. Failures are logged and swallowed;
// the audit trail never blocks or fails a request.
func (s *Store) Record(ctx context.Context, req Request) {
	if s == nil {
		return
	}

	_, err := s.conn.Exec(ctx,
		`INSERT INTO context_requests (start_id, correlation_id, requested_by, filled_slots, duration_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		req.StartID, req.CorrelationID, req.RequestedBy, req.FilledSlots, req.DurationMs,
	)
	if err != nil {
		logger.Warn("[History] Failed to record context request", "start_id", req.StartID, "err", err)
	}
}

// Recent returns the newest recorded requests for one start id.
func (s *Store) Recent(ctx context.Context, startID string, limit int) ([]Request, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.Query(ctx,
		`SELECT id, start_id, correlation_id, requested_by, filled_slots, duration_ms, created_at
		 FROM context_requests
		 WHERE start_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		startID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query context requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0)
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.StartID, &r.CorrelationID, &r.RequestedBy, &r.FilledSlots, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan context request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Enabled reports whether the store is backed by a database.
func (s *Store) Enabled() bool {
	return s != nil
}
