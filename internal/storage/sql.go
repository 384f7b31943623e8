package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQLSink mirrors batches into a SQLite-dialect database: a local file via
// modernc.org/sqlite or a remote Turso database via libsql.
type SQLSink struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		match_id TEXT PRIMARY KEY,
		winner_team_id INTEGER,
		collected_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		match_id TEXT NOT NULL,
		team_id INTEGER NOT NULL,
		team_win INTEGER NOT NULL,
		winner_team_id INTEGER,
		role TEXT NOT NULL,
		champion_name TEXT NOT NULL,
		kills INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		assists INTEGER NOT NULL,
		kda_ratio REAL NOT NULL,
		summoner1_id INTEGER,
		summoner2_id INTEGER,
		puuid TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_match ON participants(match_id)`,
}

// OpenSQLite opens (or creates) a local SQLite database file
func OpenSQLite(ctx context.Context, path string) (*SQLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	return NewSQLSink(ctx, db)
}

// OpenTurso connects to a Turso database
func OpenTurso(ctx context.Context, dbURL, authToken string) (*SQLSink, error) {
	connStr, err := tursoDSN(dbURL, authToken)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Turso: %w", err)
	}
	return NewSQLSink(ctx, db)
}

// tursoDSN adds the auth token to the database URL as an escaped query parameter.
func tursoDSN(dbURL, authToken string) (string, error) {
	if authToken == "" {
		return dbURL, nil
	}
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid Turso URL: %w", err)
	}
	q := u.Query()
	q.Set("authToken", authToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewSQLSink pings db and creates the tables if they don't exist
func NewSQLSink(ctx context.Context, db *sql.DB) (*SQLSink, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, q := range sqliteSchema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &SQLSink{db: db}, nil
}

// Flush inserts the batch in one transaction. Participants of a match that is
// already stored are skipped, so replaying a batch is harmless.
func (s *SQLSink) Flush(ctx context.Context, batch Batch) error {
	if batch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	matchStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO matches (match_id, winner_team_id, collected_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer matchStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := make(map[string]bool, len(batch.Matches))
	for _, m := range batch.Matches {
		res, err := matchStmt.ExecContext(ctx, m.MatchID, nullableInt(m.WinnerTeamID), now)
		if err != nil {
			return fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted[m.MatchID] = true
		}
	}

	partStmt, err := tx.PrepareContext(ctx, `INSERT INTO participants (
		match_id, team_id, team_win, winner_team_id, role, champion_name,
		kills, deaths, assists, kda_ratio, summoner1_id, summoner2_id, puuid
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare participant insert: %w", err)
	}
	defer partStmt.Close()

	for _, p := range batch.Participants {
		if !inserted[p.MatchID] {
			continue
		}
		if _, err := partStmt.ExecContext(ctx,
			p.MatchID, p.TeamID, p.TeamWin, nullableInt(p.WinnerTeamID), p.Role, p.ChampionName,
			p.Kills, p.Deaths, p.Assists, p.KDARatio,
			nullableInt(p.Summoner1ID), nullableInt(p.Summoner2ID), p.PUUID,
		); err != nil {
			return fmt.Errorf("failed to insert participant of %s: %w", p.MatchID, err)
		}
	}

	return tx.Commit()
}

// MatchIDs returns every stored match ID
func (s *SQLSink) MatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT match_id FROM matches ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database
func (s *SQLSink) Close() error {
	return s.db.Close()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}
