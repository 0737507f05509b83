package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/oskarnyberg/veilkeep/internal/db"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
)

type EventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEventStore(db *sql.DB, writer *dbpkg.Worker) *EventStore {
	return &EventStore{db: db, writer: writer}
}

func (s *EventStore) RecordEvent(ctx context.Context, rec store.EventRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	recordedMs := rec.RecordedAt.UTC().UnixMilli()

	var actor any
	if !rec.Actor.IsZero() {
		actor = rec.Actor[:]
	}

	var payload any
	if len(rec.Payload) > 0 {
		payload = rec.Payload
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_events(kind, record_id, actor, payload, recorded_at_ms)
VALUES (?, ?, ?, ?, ?);
`, rec.Kind, rec.RecordID, actor, payload, recordedMs); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes audit events recorded before the cutoff.
// Returns the number of rows deleted. Uses idx_audit_events_time for
// an efficient range scan.
func (s *EventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM audit_events WHERE recorded_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
