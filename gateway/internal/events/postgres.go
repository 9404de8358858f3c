package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lotuspetal/lotuspetal-api/common/database"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connString. The schema is expected to be
// migrated already (see database.Migrate).
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := database.Open(ctx, connString, database.DefaultPoolOptions)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreFromPool wraps an existing pool.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

const upsertQuery = `
	INSERT INTO sourcing_events (id, tenant_id, title, status, created_at, due_at, platform)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		tenant_id  = EXCLUDED.tenant_id,
		title      = EXCLUDED.title,
		status     = EXCLUDED.status,
		created_at = EXCLUDED.created_at,
		due_at     = EXCLUDED.due_at,
		updated_at = NOW()
`

// Upsert writes all events in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, events []SourcingEvent) (int, error) {
	if err := validateAll(events); err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(upsertQuery, ev.ID, ev.TenantID, ev.Title, ev.Status, ev.CreatedAt, ev.DueAt, ev.Platform)
	}

	results := tx.SendBatch(ctx, batch)
	for _, ev := range events {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("failed to upsert event %s: %w", ev.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit events: %w", err)
	}
	return len(events), nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID string) ([]SourcingEvent, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, title, status, created_at, due_at, platform
		FROM sourcing_events
		WHERE tenant_id = $1
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	result := make([]SourcingEvent, 0)
	for rows.Next() {
		var ev SourcingEvent
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.Title, &ev.Status, &ev.CreatedAt, &ev.DueAt, &ev.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*SourcingEvent, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var ev SourcingEvent
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, title, status, created_at, due_at, platform
		FROM sourcing_events
		WHERE id = $1
	`, id).Scan(&ev.ID, &ev.TenantID, &ev.Title, &ev.Status, &ev.CreatedAt, &ev.DueAt, &ev.Platform)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &ev, nil
}
