package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/oskarnyberg/veilkeep/internal/db"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

type HandleStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewHandleStore(db *sql.DB, writer *dbpkg.Worker) *HandleStore {
	return &HandleStore{db: db, writer: writer}
}

// Bind attaches a handle to (recordID, slot), write-once. The check
// and the insert run in the same writer transaction, so there is no
// window where two binds for the same slot can both pass.
func (s *HandleStore) Bind(ctx context.Context, recordID uint64, slot types.Slot, h seal.Handle) error {
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `
SELECT 1 FROM attribute_handles WHERE (record_id = ? AND slot = ?) OR handle = ?;
`, recordID, slot, h[:]).Scan(&one)
		if err == nil {
			return store.ErrAlreadyBound
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("Bind check: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO attribute_handles(record_id, slot, handle, bound_at_ms)
VALUES (?, ?, ?, ?);
`, recordID, slot, h[:], nowMs); err != nil {
			return fmt.Errorf("Bind insert: %w", err)
		}
		return nil
	})
}

func (s *HandleStore) Get(ctx context.Context, recordID uint64, slot types.Slot) (seal.Handle, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
SELECT handle FROM attribute_handles WHERE record_id = ? AND slot = ?;
`, recordID, slot).Scan(&raw)

	if err == sql.ErrNoRows {
		return seal.Handle{}, store.ErrHandleNotFound
	}
	if err != nil {
		return seal.Handle{}, fmt.Errorf("Get handle: %w", err)
	}

	var h seal.Handle
	copy(h[:], raw)
	return h, nil
}

func (s *HandleStore) Resolve(ctx context.Context, h seal.Handle) (store.HandleBinding, error) {
	var recordID uint64
	var slot uint8

	err := s.db.QueryRowContext(ctx, `
SELECT record_id, slot FROM attribute_handles WHERE handle = ?;
`, h[:]).Scan(&recordID, &slot)

	if err == sql.ErrNoRows {
		return store.HandleBinding{}, store.ErrHandleNotFound
	}
	if err != nil {
		return store.HandleBinding{}, fmt.Errorf("Resolve handle: %w", err)
	}

	return store.HandleBinding{RecordID: recordID, Slot: types.Slot(slot), Handle: h}, nil
}
