// Package syncx is the append-only outbox the background uploader drains to
// push locally persisted scores to the server.
package syncx

import (
	"context"
	"database/sql"
	"time"
)

const (
	EventScoreSaved   = "ScoreSaved"
	EventRewardEarned = "RewardEarned"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string
	DataJSON  string
	IsSynced  bool
	CreatedAt int64
}

// Execer is satisfied by *sql.DB and *sql.Tx so events can ride the same
// transaction as the rows they describe.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	return Append(ctx, r.db, e)
}

// Append writes one event via the given execer (DB handle or transaction).
func Append(ctx context.Context, ex Execer, e Event) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO sync_events (typ, key, data, is_synced, created_at)
		 VALUES ($1,$2,$3,0,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// Pending returns unsynced events in append order, oldest first.
func (r *EventRepo) Pending(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", typ, key, data, is_synced, created_at
		 FROM sync_events WHERE is_synced=0 ORDER BY "offset" ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var synced int
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.DataJSON, &synced, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.IsSynced = synced != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSynced flags events the uploader has delivered.
func (r *EventRepo) MarkSynced(ctx context.Context, offsets ...int64) error {
	for _, off := range offsets {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE sync_events SET is_synced=1 WHERE "offset"=$1`, off); err != nil {
			return err
		}
	}
	return nil
}
