package service

import (
	"context"
	"errors"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

var (
	ErrInvalidSlot        = errors.New("attribute slot out of range")
	ErrNotAuthorized      = errors.New("caller is not the record owner")
	ErrRevocationDisabled = errors.New("grant revocation is disabled")
)

// AccessService is the access control ledger: per-(record, slot)
// grant administration and the authorization check used by the
// decryption protocol.
type AccessService struct {
	records    store.RecordStore
	grants     store.GrantStore
	eventStore store.EventStore

	// enableRevocation gates RevokeGrant. The source behavior never
	// revokes; the primitive exists behind this flag rather than
	// assuming either intent.
	enableRevocation bool
}

func NewAccessService(records store.RecordStore, grants store.GrantStore, es store.EventStore, enableRevocation bool) *AccessService {
	return &AccessService{
		records:          records,
		grants:           grants,
		eventStore:       es,
		enableRevocation: enableRevocation,
	}
}

// Grant authorizes grantee to request decryption of one attribute
// slot of one record. Only the record owner may grant; granting twice
// is a no-op.
func (s *AccessService) Grant(ctx context.Context, caller seal.Principal, recordID uint64, slot types.Slot, grantee seal.Principal) error {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	if rec.Owner != caller {
		return ErrNotAuthorized
	}

	if err := s.grants.Put(ctx, recordID, slot, grantee); err != nil {
		return err
	}

	s.recordEvent(ctx, store.EventGrantAdded, recordID, caller)
	return nil
}

// RevokeGrant removes a previously granted permission. Available only
// when revocation is enabled in config; revoking an absent grant is a
// no-op, mirroring Grant's idempotence.
func (s *AccessService) RevokeGrant(ctx context.Context, caller seal.Principal, recordID uint64, slot types.Slot, grantee seal.Principal) error {
	if !s.enableRevocation {
		return ErrRevocationDisabled
	}

	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	if rec.Owner != caller {
		return ErrNotAuthorized
	}

	if err := s.grants.Delete(ctx, recordID, slot, grantee); err != nil {
		return err
	}

	s.recordEvent(ctx, store.EventGrantRevoked, recordID, caller)
	return nil
}

// IsAuthorized reports whether principal may request decryption of
// (recordID, slot). Two predicates are evaluated in order: the
// structural owner check, then the explicit grant lookup. An absent
// record or invalid slot is simply "not authorized" — this read path
// serves the decryption gate, which must not leak existence.
func (s *AccessService) IsAuthorized(ctx context.Context, recordID uint64, slot types.Slot, principal seal.Principal) (bool, error) {
	if !slot.Valid() {
		return false, nil
	}

	for _, check := range []authPredicate{s.ownerCheck, s.explicitGrant} {
		ok, err := check(ctx, recordID, slot, principal)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type authPredicate func(ctx context.Context, recordID uint64, slot types.Slot, principal seal.Principal) (bool, error)

// ownerCheck: the record owner has standing permission for every slot
// of their own records. Not stored; checked structurally.
func (s *AccessService) ownerCheck(ctx context.Context, recordID uint64, _ types.Slot, principal seal.Principal) (bool, error) {
	rec, err := s.records.Get(ctx, recordID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Owner == principal, nil
}

// explicitGrant: the owner-administered per-slot grant set.
func (s *AccessService) explicitGrant(ctx context.Context, recordID uint64, slot types.Slot, principal seal.Principal) (bool, error) {
	return s.grants.Has(ctx, recordID, slot, principal)
}

// recordEvent persists a grant mutation to the audit log. Errors are
// intentionally not returned — a failed audit write should not unwind
// an applied grant.
func (s *AccessService) recordEvent(ctx context.Context, kind string, recordID uint64, actor seal.Principal) {
	_ = s.eventStore.RecordEvent(ctx, store.EventRecord{
		Kind:       kind,
		RecordID:   recordID,
		Actor:      actor,
		RecordedAt: time.Now().UTC(),
	})
}
