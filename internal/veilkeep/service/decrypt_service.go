package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/backend"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
)

var (
	ErrExpiredAuthorization  = errors.New("authorization window does not cover the current time")
	ErrUnauthorizedAttribute = errors.New("requester is not authorized for attribute")
	ErrNoPairs               = errors.New("decryption request names no handles")
)

// DecryptService is the decryption authorization protocol: a chain of
// fail-closed gates in front of the external decryption backend.
// The pure authorization decision (AuthorizeAt) is separate from the
// forwarding call so every gate is testable without network I/O.
type DecryptService struct {
	handles    store.HandleStore
	access     *AccessService
	eventStore store.EventStore
	contract   seal.Contract
	decryptor  backend.Decryptor
}

func NewDecryptService(
	handles store.HandleStore,
	access *AccessService,
	es store.EventStore,
	contract seal.Contract,
	decryptor backend.Decryptor,
) *DecryptService {
	return &DecryptService{
		handles:    handles,
		access:     access,
		eventStore: es,
		contract:   contract,
		decryptor:  decryptor,
	}
}

// AuthorizedSet is a decryption request that has passed every gate
// and may be forwarded to the backend.
type AuthorizedSet struct {
	Authorization seal.Authorization
	Pairs         []backend.Pair
}

// AuthorizeAt runs the authorization gates against the given time.
// Gates, in order, each aborting the whole request on failure:
//
//  1. the validity window must contain at;
//  2. the signature must recover to the requester principal;
//  3. every pair must name a contract inside the signed contract set
//     and this registry, resolve to a bound attribute, and pass the
//     access check for the requester.
//
// Gate 3 is all-or-nothing: one bad pair rejects the set, including
// pairs that would have been authorized on their own. Its error is
// identical whether the handle is unknown or merely ungranted, so an
// unauthorized caller cannot probe which handles exist.
func (s *DecryptService) AuthorizeAt(ctx context.Context, auth seal.Authorization, pairs []backend.Pair, at time.Time) (AuthorizedSet, error) {
	if len(pairs) == 0 {
		return AuthorizedSet{}, ErrNoPairs
	}

	if !auth.WindowContains(at) {
		return AuthorizedSet{}, ErrExpiredAuthorization
	}

	if err := auth.VerifySignature(); err != nil {
		return AuthorizedSet{}, err
	}

	for i, pair := range pairs {
		if err := s.checkPair(ctx, auth, pair); err != nil {
			return AuthorizedSet{}, fmt.Errorf("pair %d (%s): %w", i, pair.Handle, err)
		}
	}

	return AuthorizedSet{Authorization: auth, Pairs: pairs}, nil
}

// Authorize is AuthorizeAt against the current time.
func (s *DecryptService) Authorize(ctx context.Context, auth seal.Authorization, pairs []backend.Pair) (AuthorizedSet, error) {
	return s.AuthorizeAt(ctx, auth, pairs, time.Now().UTC())
}

// RequestDecryption authorizes the request and forwards the full pair
// set plus the ephemeral key to the decryption backend, returning its
// ticket map untouched. The backend call mutates no registry state.
func (s *DecryptService) RequestDecryption(ctx context.Context, auth seal.Authorization, pairs []backend.Pair) (map[seal.Handle]backend.Ticket, error) {
	authorized, err := s.Authorize(ctx, auth, pairs)
	if err != nil {
		return nil, err
	}

	tickets, err := s.decryptor.Decrypt(ctx, backend.Request{
		Authorization: authorized.Authorization,
		Pairs:         authorized.Pairs,
	})
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, authorized)

	return tickets, nil
}

// checkPair enforces gate 3 for one (handle, contract) pair. All
// failure modes collapse to ErrUnauthorizedAttribute: fail closed and
// uniformly, whether the contract is foreign, the handle unknown, or
// the grant absent.
func (s *DecryptService) checkPair(ctx context.Context, auth seal.Authorization, pair backend.Pair) error {
	if pair.Contract != s.contract || !auth.Covers(pair.Contract) {
		return ErrUnauthorizedAttribute
	}

	binding, err := s.handles.Resolve(ctx, pair.Handle)
	if errors.Is(err, store.ErrHandleNotFound) {
		return ErrUnauthorizedAttribute
	}
	if err != nil {
		return err
	}

	ok, err := s.access.IsAuthorized(ctx, binding.RecordID, binding.Slot, auth.Requester)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorizedAttribute
	}
	return nil
}

// recordEvent appends an audit entry for a forwarded request. Errors
// are intentionally not returned — the tickets are already issued.
func (s *DecryptService) recordEvent(ctx context.Context, authorized AuthorizedSet) {
	_ = s.eventStore.RecordEvent(ctx, store.EventRecord{
		Kind:       store.EventDecryptGranted,
		Actor:      authorized.Authorization.Requester,
		RecordedAt: time.Now().UTC(),
	})
}
