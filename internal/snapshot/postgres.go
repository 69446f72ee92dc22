package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// PgPool defines the interface for the PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStore persists snapshot sets so the API can load the latest one at
// startup without rerunning the pipeline.
type PostgresStore struct {
	pg PgPool
}

func NewPostgresStore(pg PgPool) *PostgresStore {
	return &PostgresStore{pg: pg}
}

const schema = `
CREATE TABLE IF NOT EXISTS player_snapshots (
	player_id TEXT PRIMARY KEY,
	snapshot  JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// SaveAll replaces the persisted snapshot set with a new one in a single
// batch: stale players are removed so the table always mirrors the latest
// replay exactly.
func (s *PostgresStore) SaveAll(ctx context.Context, snaps []models.LatestPlayerSnapshot) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM player_snapshots`)
	for i := range snaps {
		data, err := json.Marshal(&snaps[i])
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", snaps[i].PlayerID, err)
		}
		batch.Queue(`
			INSERT INTO player_snapshots (player_id, snapshot, updated_at)
			VALUES ($1, $2, now())
		`, snaps[i].PlayerID, data)
	}

	results := s.pg.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save snapshots: %w", err)
		}
	}
	return nil
}

// LoadAll reads the persisted snapshot set.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]models.LatestPlayerSnapshot, error) {
	rows, err := s.pg.Query(ctx, `SELECT snapshot FROM player_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.LatestPlayerSnapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		var snap models.LatestPlayerSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parse snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snaps, nil
}
