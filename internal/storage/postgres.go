package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink mirrors batches into Postgres, bulk-loading participants with COPY.
type PostgresSink struct {
	pool *pgxpool.Pool
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS crawl_matches (
		match_id TEXT PRIMARY KEY,
		winner_team_id INTEGER,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS crawl_participants (
		match_id TEXT NOT NULL REFERENCES crawl_matches(match_id),
		team_id INTEGER NOT NULL,
		team_win BOOLEAN NOT NULL,
		winner_team_id INTEGER,
		role TEXT NOT NULL,
		champion_name TEXT NOT NULL,
		kills INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		assists INTEGER NOT NULL,
		kda_ratio DOUBLE PRECISION NOT NULL,
		summoner1_id INTEGER,
		summoner2_id INTEGER,
		puuid TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crawl_participants_match ON crawl_participants(match_id)`,
}

var participantCopyColumns = []string{
	"match_id", "team_id", "team_win", "winner_team_id", "role", "champion_name",
	"kills", "deaths", "assists", "kda_ratio", "summoner1_id", "summoner2_id", "puuid",
}

// NewPostgresSink creates a connection pool and ensures the tables exist
func NewPostgresSink(ctx context.Context, dbURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, q := range postgresSchema {
		if _, err := pool.Exec(ctx, q); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &PostgresSink{pool: pool}, nil
}

// Flush stores the batch in one transaction. Matches already present are
// left alone together with their participants.
func (s *PostgresSink) Flush(ctx context.Context, batch Batch) error {
	if batch.Empty() {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := make(map[string]bool, len(batch.Matches))
	for _, m := range batch.Matches {
		tag, err := tx.Exec(ctx,
			`INSERT INTO crawl_matches (match_id, winner_team_id) VALUES ($1, $2) ON CONFLICT (match_id) DO NOTHING`,
			m.MatchID, nullableInt(m.WinnerTeamID))
		if err != nil {
			return fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
		}
		if tag.RowsAffected() > 0 {
			inserted[m.MatchID] = true
		}
	}

	rows := make([][]interface{}, 0, len(batch.Participants))
	for _, p := range batch.Participants {
		if !inserted[p.MatchID] {
			continue
		}
		rows = append(rows, []interface{}{
			p.MatchID, p.TeamID, p.TeamWin, nullableInt(p.WinnerTeamID), p.Role, p.ChampionName,
			p.Kills, p.Deaths, p.Assists, p.KDARatio,
			nullableInt(p.Summoner1ID), nullableInt(p.Summoner2ID), p.PUUID,
		})
	}

	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"crawl_participants"}, participantCopyColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to copy participants: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MatchIDs returns every stored match ID, oldest first
func (s *PostgresSink) MatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT match_id FROM crawl_matches ORDER BY collected_at, match_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Close closes the connection pool
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
