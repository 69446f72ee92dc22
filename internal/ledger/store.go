package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// PgPool defines the interface for the PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store persists the match ledger in Postgres.
type Store struct {
	pg PgPool
}

func NewStore(pg PgPool) *Store {
	return &Store{pg: pg}
}

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id                UUID PRIMARY KEY,
	date              DATE NOT NULL,
	surface           TEXT NOT NULL,
	tier              TEXT NOT NULL DEFAULT '',
	player_a_id       TEXT NOT NULL,
	player_a_name     TEXT NOT NULL DEFAULT '',
	player_a_rank     DOUBLE PRECISION,
	player_a_aces     DOUBLE PRECISION,
	player_a_bp_saved DOUBLE PRECISION,
	player_a_bp_faced DOUBLE PRECISION,
	player_b_id       TEXT NOT NULL,
	player_b_name     TEXT NOT NULL DEFAULT '',
	player_b_rank     DOUBLE PRECISION,
	player_b_aces     DOUBLE PRECISION,
	player_b_bp_saved DOUBLE PRECISION,
	player_b_bp_faced DOUBLE PRECISION,
	winner_id         TEXT NOT NULL,
	minutes           DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_matches_date ON matches (date, id);
`

// EnsureSchema creates the ledger table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

const insertMatch = `
INSERT INTO matches (
	id, date, surface, tier,
	player_a_id, player_a_name, player_a_rank, player_a_aces, player_a_bp_saved, player_a_bp_faced,
	player_b_id, player_b_name, player_b_rank, player_b_aces, player_b_bp_saved, player_b_bp_faced,
	winner_id, minutes
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO NOTHING
`

// InsertMatches writes a batch of matches, skipping IDs already present.
// Returns the number of rows actually inserted.
func (s *Store) InsertMatches(ctx context.Context, matches []models.Match) (int64, error) {
	if len(matches) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for i := range matches {
		m := &matches[i]
		batch.Queue(insertMatch,
			m.ID, m.Date, string(m.Surface), m.Tier,
			m.A.PlayerID, m.A.Name, m.A.Rank, m.A.Aces, m.A.BPSaved, m.A.BPFaced,
			m.B.PlayerID, m.B.Name, m.B.Rank, m.B.Aces, m.B.BPSaved, m.B.BPFaced,
			m.WinnerID, m.Minutes,
		)
	}
	results := s.pg.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range matches {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert match batch: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// LoadMatches reads the full ledger ordered by (date, id), which is the
// replay order contract.
func (s *Store) LoadMatches(ctx context.Context) ([]models.Match, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT
			id, date, surface, tier,
			player_a_id, player_a_name, player_a_rank, player_a_aces, player_a_bp_saved, player_a_bp_faced,
			player_b_id, player_b_name, player_b_rank, player_b_aces, player_b_bp_saved, player_b_bp_faced,
			winner_id, minutes
		FROM matches
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	seq := 0
	for rows.Next() {
		var m models.Match
		var surface string
		if err := rows.Scan(
			&m.ID, &m.Date, &surface, &m.Tier,
			&m.A.PlayerID, &m.A.Name, &m.A.Rank, &m.A.Aces, &m.A.BPSaved, &m.A.BPFaced,
			&m.B.PlayerID, &m.B.Name, &m.B.Rank, &m.B.Aces, &m.B.BPSaved, &m.B.BPFaced,
			&m.WinnerID, &m.Minutes,
		); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		m.Surface = models.Surface(surface)
		m.Seq = seq
		seq++
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return matches, nil
}

// Count returns the number of matches in the ledger.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pg.QueryRow(ctx, `SELECT count(*) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return n, nil
}
