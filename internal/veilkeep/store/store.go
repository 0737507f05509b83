package store

import (
	"context"
	"errors"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

var (
	// ErrAlreadyBound is returned by HandleStore.Bind when the
	// (record, slot) pair already holds a handle, or when the handle
	// itself is already bound elsewhere. Attributes are write-once.
	ErrAlreadyBound = errors.New("ciphertext handle already bound")

	ErrRecordNotFound = errors.New("record not found")
	ErrHandleNotFound = errors.New("ciphertext handle not found")
)

// RecordRow is a registry record: a monotonically assigned identifier,
// the owning principal, and the creation time. Records are append-only
// and never destroyed.
type RecordRow struct {
	ID        uint64
	Owner     seal.Principal
	CreatedAt time.Time
}

type RecordStore interface {
	// Create allocates the next record identifier for owner.
	Create(ctx context.Context, owner seal.Principal, createdAt time.Time) (uint64, error)
	Get(ctx context.Context, id uint64) (RecordRow, error)
	Count(ctx context.Context) (uint64, error)
}

// HandleBinding locates a ciphertext handle on the registry.
type HandleBinding struct {
	RecordID uint64
	Slot     types.Slot
	Handle   seal.Handle
}

type HandleStore interface {
	// Bind attaches a handle to (recordID, slot), write-once.
	Bind(ctx context.Context, recordID uint64, slot types.Slot, h seal.Handle) error

	// Get returns the handle bound to (recordID, slot), or
	// ErrHandleNotFound.
	Get(ctx context.Context, recordID uint64, slot types.Slot) (seal.Handle, error)

	// Resolve maps a handle back to its binding, or
	// ErrHandleNotFound.
	Resolve(ctx context.Context, h seal.Handle) (HandleBinding, error)
}

type GrantStore interface {
	// Put adds (recordID, slot, grantee) to the grant set.
	// Granting twice is a no-op, not an error.
	Put(ctx context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) error

	Has(ctx context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) (bool, error)

	// Delete removes a grant. Deleting an absent grant is a no-op.
	Delete(ctx context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) error
}

// Event kinds recorded in the audit log.
const (
	EventRecordCreated  = "record_created"
	EventGrantAdded     = "grant_added"
	EventGrantRevoked   = "grant_revoked"
	EventDecryptGranted = "decrypt_granted"
)

// EventRecord is one append-only audit log entry. Payload is a CBOR
// blob whose shape depends on Kind; external indexers interpret it.
type EventRecord struct {
	Kind       string
	RecordID   uint64
	Actor      seal.Principal
	Payload    []byte
	RecordedAt time.Time
}

type EventStore interface {
	RecordEvent(ctx context.Context, rec EventRecord) error
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
