package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
)

type RecordStore struct {
	mu      sync.RWMutex
	next    uint64
	records map[uint64]store.RecordRow
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		next:    1,
		records: make(map[uint64]store.RecordRow),
	}
}

func (s *RecordStore) Create(_ context.Context, owner seal.Principal, createdAt time.Time) (uint64, error) {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.records[id] = store.RecordRow{ID: id, Owner: owner, CreatedAt: createdAt}
	return id, nil
}

func (s *RecordStore) Get(_ context.Context, id uint64) (store.RecordRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return store.RecordRow{}, store.ErrRecordNotFound
	}
	return rec, nil
}

func (s *RecordStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}
