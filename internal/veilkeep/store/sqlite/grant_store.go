package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/oskarnyberg/veilkeep/internal/db"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

type GrantStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewGrantStore(db *sql.DB, writer *dbpkg.Worker) *GrantStore {
	return &GrantStore{db: db, writer: writer}
}

// Put adds a grant. INSERT OR IGNORE makes re-granting a no-op, which
// is the contract: grants are idempotent, not an error to repeat.
func (s *GrantStore) Put(ctx context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) error {
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO grants(record_id, slot, grantee, granted_at_ms)
VALUES (?, ?, ?, ?);
`, recordID, slot, grantee[:], nowMs); err != nil {
			return fmt.Errorf("Put grant: %w", err)
		}
		return nil
	})
}

func (s *GrantStore) Has(ctx context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM grants WHERE record_id = ? AND slot = ? AND grantee = ?;
`, recordID, slot, grantee[:]).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Has grant: %w", err)
	}
	return true, nil
}

func (s *GrantStore) Delete(ctx context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM grants WHERE record_id = ? AND slot = ? AND grantee = ?;
`, recordID, slot, grantee[:]); err != nil {
			return fmt.Errorf("Delete grant: %w", err)
		}
		return nil
	})
}
