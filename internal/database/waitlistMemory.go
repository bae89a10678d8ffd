package repository

import (
	"context"
	"sync"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
)

// MemoryStore keeps the table in process memory. It never fails.
type MemoryStore struct {
	mu    sync.RWMutex
	table entity.WaitlistTable
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{table: entity.WaitlistTable{}}
}

func (s *MemoryStore) Load(_ context.Context) (entity.WaitlistTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, table entity.WaitlistTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table.Clone()
	return nil
}
