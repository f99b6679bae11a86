package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const defaultRecentLimit = 20

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(databaseURL string) (*PostgresRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

const schema = `CREATE TABLE IF NOT EXISTS board_sessions (
	record_id      TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	player_id      TEXT NOT NULL,
	local_color    TEXT NOT NULL,
	result         TEXT NOT NULL,
	winner         TEXT NOT NULL,
	outcome        TEXT NOT NULL,
	moves_proposed INTEGER NOT NULL,
	final_fen      TEXT NOT NULL,
	started_at     TIMESTAMPTZ NOT NULL,
	ended_at       TIMESTAMPTZ NOT NULL,
	duration_ms    BIGINT NOT NULL
)`

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveResult upserts a finished session keyed by record id.
func (r *PostgresRepository) SaveResult(ctx context.Context, rec *Record) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}
	q := `INSERT INTO board_sessions (
		record_id, session_id, player_id, local_color,
		result, winner, outcome, moves_proposed, final_fen,
		started_at, ended_at, duration_ms
	  ) VALUES (
		$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
	  ) ON CONFLICT (record_id) DO UPDATE SET
		session_id=EXCLUDED.session_id,
		player_id=EXCLUDED.player_id,
		local_color=EXCLUDED.local_color,
		result=EXCLUDED.result,
		winner=EXCLUDED.winner,
		outcome=EXCLUDED.outcome,
		moves_proposed=EXCLUDED.moves_proposed,
		final_fen=EXCLUDED.final_fen,
		started_at=EXCLUDED.started_at,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.SessionID, rec.PlayerID, rec.LocalColor,
		rec.Result, rec.Winner, rec.Outcome(), rec.MovesProposed, rec.FinalFEN,
		rec.StartedAt, rec.EndedAt, rec.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Recent(ctx context.Context, playerID string, limit int) ([]*Record, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	const q = `SELECT record_id, session_id, player_id, local_color, result, winner,
		moves_proposed, final_fen, started_at, ended_at
		FROM board_sessions WHERE player_id = $1
		ORDER BY ended_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.PlayerID, &rec.LocalColor,
			&rec.Result, &rec.Winner, &rec.MovesProposed, &rec.FinalFEN,
			&rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
