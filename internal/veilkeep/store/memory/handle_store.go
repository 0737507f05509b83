package memory

import (
	"context"
	"sync"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

type slotKey struct {
	recordID uint64
	slot     types.Slot
}

type HandleStore struct {
	mu      sync.RWMutex
	bySlot  map[slotKey]seal.Handle
	byValue map[seal.Handle]store.HandleBinding
}

func NewHandleStore() *HandleStore {
	return &HandleStore{
		bySlot:  make(map[slotKey]seal.Handle),
		byValue: make(map[seal.Handle]store.HandleBinding),
	}
}

func (s *HandleStore) Bind(_ context.Context, recordID uint64, slot types.Slot, h seal.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{recordID: recordID, slot: slot}
	if _, ok := s.bySlot[key]; ok {
		return store.ErrAlreadyBound
	}
	// A handle references one ciphertext; it cannot be bound to two
	// attribute slots.
	if _, ok := s.byValue[h]; ok {
		return store.ErrAlreadyBound
	}

	s.bySlot[key] = h
	s.byValue[h] = store.HandleBinding{RecordID: recordID, Slot: slot, Handle: h}
	return nil
}

func (s *HandleStore) Get(_ context.Context, recordID uint64, slot types.Slot) (seal.Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.bySlot[slotKey{recordID: recordID, slot: slot}]
	if !ok {
		return seal.Handle{}, store.ErrHandleNotFound
	}
	return h, nil
}

func (s *HandleStore) Resolve(_ context.Context, h seal.Handle) (store.HandleBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	binding, ok := s.byValue[h]
	if !ok {
		return store.HandleBinding{}, store.ErrHandleNotFound
	}
	return binding, nil
}
