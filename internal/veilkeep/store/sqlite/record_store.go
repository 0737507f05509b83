package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/oskarnyberg/veilkeep/internal/db"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
)

type RecordStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRecordStore(db *sql.DB, writer *dbpkg.Worker) *RecordStore {
	return &RecordStore{db: db, writer: writer}
}

func (s *RecordStore) Create(ctx context.Context, owner seal.Principal, createdAt time.Time) (uint64, error) {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	ms := createdAt.UTC().UnixMilli()

	var id uint64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO records(owner, created_at_ms) VALUES (?, ?);
`, owner[:], ms)
		if err != nil {
			return fmt.Errorf("Create insert record: %w", err)
		}
		last, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Create record id: %w", err)
		}
		id = uint64(last)
		return nil
	})
	return id, err
}

func (s *RecordStore) Get(ctx context.Context, id uint64) (store.RecordRow, error) {
	var owner []byte
	var createdMs int64

	err := s.db.QueryRowContext(ctx, `
SELECT owner, created_at_ms FROM records WHERE record_id = ?;
`, id).Scan(&owner, &createdMs)

	if err == sql.ErrNoRows {
		return store.RecordRow{}, store.ErrRecordNotFound
	}
	if err != nil {
		return store.RecordRow{}, fmt.Errorf("Get record: %w", err)
	}

	rec := store.RecordRow{
		ID:        id,
		CreatedAt: time.UnixMilli(createdMs).UTC(),
	}
	copy(rec.Owner[:], owner)
	return rec, nil
}

func (s *RecordStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count records: %w", err)
	}
	return n, nil
}
