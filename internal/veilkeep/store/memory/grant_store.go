package memory

import (
	"context"
	"sync"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

type grantKey struct {
	recordID uint64
	slot     types.Slot
	grantee  seal.Principal
}

type GrantStore struct {
	mu     sync.RWMutex
	grants map[grantKey]struct{}
}

func NewGrantStore() *GrantStore {
	return &GrantStore{grants: make(map[grantKey]struct{})}
}

func (s *GrantStore) Put(_ context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey{recordID: recordID, slot: slot, grantee: grantee}] = struct{}{}
	return nil
}

func (s *GrantStore) Has(_ context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey{recordID: recordID, slot: slot, grantee: grantee}]
	return ok, nil
}

func (s *GrantStore) Delete(_ context.Context, recordID uint64, slot types.Slot, grantee seal.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, grantKey{recordID: recordID, slot: slot, grantee: grantee})
	return nil
}
