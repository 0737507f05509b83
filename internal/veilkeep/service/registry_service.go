package service

import (
	"context"
	"errors"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/codec"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

var (
	ErrBadHandleCount = errors.New("mint requires one handle per attribute slot")
)

// RegistryService is the record lifecycle manager: it mints records
// from gateway-attested handle batches and serves handle reads.
type RegistryService struct {
	records    store.RecordStore
	handles    store.HandleStore
	eventStore store.EventStore
	verifier   *seal.ProofVerifier
	contract   seal.Contract
}

func NewRegistryService(
	records store.RecordStore,
	handles store.HandleStore,
	es store.EventStore,
	verifier *seal.ProofVerifier,
	contract seal.Contract,
) *RegistryService {
	return &RegistryService{
		records:    records,
		handles:    handles,
		eventStore: es,
		verifier:   verifier,
		contract:   contract,
	}
}

// recordCreatedEvent is the CBOR payload of a creation event.
type recordCreatedEvent struct {
	RecordID uint64 `cbor:"1,keyasint"`
	Owner    []byte `cbor:"2,keyasint"`
}

// Mint verifies the gateway proof for (registry contract, submitter,
// handles) and, only then, allocates a record for owner and binds all
// handles. Every failure mode runs before the first state mutation,
// so a rejected mint leaves nothing observable.
func (s *RegistryService) Mint(ctx context.Context, submitter, owner seal.Principal, handles []seal.Handle, proof seal.Proof) (uint64, error) {
	if len(handles) != types.AttributeCount {
		return 0, ErrBadHandleCount
	}

	// Hard gate: all-or-nothing over the full batch. A rejected batch
	// binds nothing.
	if err := s.verifier.VerifyBatch(s.contract, submitter, handles, proof); err != nil {
		return 0, err
	}

	// Handle reuse is a logical failure, so it too must run before the
	// first mutation: a record is only created once every bind is known
	// to succeed.
	seen := make(map[seal.Handle]struct{}, len(handles))
	for _, h := range handles {
		if _, dup := seen[h]; dup {
			return 0, store.ErrAlreadyBound
		}
		seen[h] = struct{}{}

		_, err := s.handles.Resolve(ctx, h)
		if err == nil {
			return 0, store.ErrAlreadyBound
		}
		if !errors.Is(err, store.ErrHandleNotFound) {
			return 0, err
		}
	}

	now := time.Now().UTC()

	id, err := s.records.Create(ctx, owner, now)
	if err != nil {
		return 0, err
	}

	for slot, h := range handles {
		if err := s.handles.Bind(ctx, id, types.Slot(slot), h); err != nil {
			return 0, err
		}
	}

	// The owner's full access is structural (checked against the
	// records table), not written as grant rows.

	s.recordEvent(ctx, id, owner, now)

	return id, nil
}

// GetRecord returns the record row plus all bound handles.
func (s *RegistryService) GetRecord(ctx context.Context, id uint64) (store.RecordRow, [types.AttributeCount]seal.Handle, error) {
	var out [types.AttributeCount]seal.Handle

	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return store.RecordRow{}, out, err
	}

	for slot := types.Slot(0); slot.Valid(); slot++ {
		h, err := s.handles.Get(ctx, id, slot)
		if err != nil {
			return store.RecordRow{}, out, err
		}
		out[slot] = h
	}
	return rec, out, nil
}

// GetHandle returns the handle bound to one attribute slot.
func (s *RegistryService) GetHandle(ctx context.Context, id uint64, slot types.Slot) (seal.Handle, error) {
	if !slot.Valid() {
		return seal.Handle{}, ErrInvalidSlot
	}
	if _, err := s.records.Get(ctx, id); err != nil {
		return seal.Handle{}, err
	}
	return s.handles.Get(ctx, id, slot)
}

// Count returns the number of minted records.
func (s *RegistryService) Count(ctx context.Context) (uint64, error) {
	return s.records.Count(ctx)
}

// recordEvent appends the creation event for external indexers.
// Errors are intentionally not returned to the caller — the record is
// already minted, and a failed audit write must not unwind it.
func (s *RegistryService) recordEvent(ctx context.Context, id uint64, owner seal.Principal, at time.Time) {
	payload, err := codec.Marshal(recordCreatedEvent{RecordID: id, Owner: owner[:]})
	if err != nil {
		return
	}
	_ = s.eventStore.RecordEvent(ctx, store.EventRecord{
		Kind:       store.EventRecordCreated,
		RecordID:   id,
		Actor:      owner,
		Payload:    payload,
		RecordedAt: at,
	})
}
