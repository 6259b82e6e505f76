package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchRow is one recorded session.
type MatchRow struct {
	ID          uuid.UUID
	SceneName   string
	SceneKind   string
	Fingerprint string
	StartedAt   time.Time
	EndedAt     *time.Time
	Frames      int64
	Score       int32
	Winner      string
}

// MatchEvent is one gameplay event of a match.
type MatchEvent struct {
	Frame  int64
	Kind   string // "shot", "damage", "sunk", "bumper", "drain", "game_over"
	Actor  string
	Target string
	Amount float32
}

// MatchResult closes a match.
type MatchResult struct {
	Frames int64
	Score  int32
	Winner string
}

type MatchRepo struct {
	db *DB
}

func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Start inserts a new match row and returns its id.
func (r *MatchRepo) Start(ctx context.Context, sceneName, sceneKind, fingerprint string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO matches (id, scene_name, scene_kind, fingerprint) VALUES ($1, $2, $3, $4)`,
		id, sceneName, sceneKind, fingerprint,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("start match: %w", err)
	}
	return id, nil
}

// AppendEvents writes a batch of events in a single transaction. Either the
// whole batch lands or none of it does.
func (r *MatchRepo) AppendEvents(ctx context.Context, matchID uuid.UUID, events []MatchEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("events begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		if _, err := tx.Exec(ctx,
			`INSERT INTO match_events (match_id, frame, kind, actor, target, amount)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			matchID, e.Frame, e.Kind, e.Actor, e.Target, e.Amount,
		); err != nil {
			return fmt.Errorf("events insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Finish stamps the end time and result.
func (r *MatchRepo) Finish(ctx context.Context, matchID uuid.UUID, res MatchResult) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE matches SET ended_at = now(), frames = $2, score = $3, winner = $4 WHERE id = $1`,
		matchID, res.Frames, res.Score, res.Winner,
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish %s: %w", matchID, ErrMatchNotFound)
	}
	return nil
}

// Get loads a match by id.
func (r *MatchRepo) Get(ctx context.Context, matchID uuid.UUID) (*MatchRow, error) {
	var m MatchRow
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, scene_name, scene_kind, fingerprint, started_at, ended_at, frames, score, winner
		 FROM matches WHERE id = $1`, matchID,
	).Scan(&m.ID, &m.SceneName, &m.SceneKind, &m.Fingerprint, &m.StartedAt, &m.EndedAt,
		&m.Frames, &m.Score, &m.Winner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", matchID, ErrMatchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return &m, nil
}

// Events loads every event of a match in frame order.
func (r *MatchRepo) Events(ctx context.Context, matchID uuid.UUID) ([]MatchEvent, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT frame, kind, actor, target, amount FROM match_events
		 WHERE match_id = $1 ORDER BY frame, id`, matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []MatchEvent
	for rows.Next() {
		var e MatchEvent
		if err := rows.Scan(&e.Frame, &e.Kind, &e.Actor, &e.Target, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentByScene lists the latest matches played on a scene fingerprint.
func (r *MatchRepo) RecentByScene(ctx context.Context, fingerprint string, limit int) ([]MatchRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, scene_name, scene_kind, fingerprint, started_at, ended_at, frames, score, winner
		 FROM matches WHERE fingerprint = $1 ORDER BY started_at DESC LIMIT $2`,
		fingerprint, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (MatchRow, error) {
		var m MatchRow
		err := row.Scan(&m.ID, &m.SceneName, &m.SceneKind, &m.Fingerprint, &m.StartedAt,
			&m.EndedAt, &m.Frames, &m.Score, &m.Winner)
		return m, err
	})
}
