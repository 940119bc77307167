package mapping

import (
	"context"
	"sync"
	"time"

	"fitment-workers/internal/models"

	"github.com/google/uuid"
)

type memoryKey struct {
	vendorKey string
	vendorTag string
}

// MemoryStore keeps mappings in process. It backs tests and deployments without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[memoryKey]models.LearnedMapping
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mappings: make(map[memoryKey]models.LearnedMapping),
		now:      time.Now,
	}
}

func (s *MemoryStore) GetExistingMapping(_ context.Context, vendorKey, vendorTag string) (*models.LearnedMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mappings[memoryKey{vendorKey, vendorTag}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) SaveMapping(_ context.Context, m models.LearnedMapping) error {
	if err := Validate(m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{m.VendorKey, m.VendorTag}
	if existing, ok := s.mappings[key]; ok {
		m.ID = existing.ID
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ResolvedAt.IsZero() {
		m.ResolvedAt = s.now().UTC()
	}
	s.mappings[key] = m
	return nil
}

// Len returns the number of stored mappings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}
