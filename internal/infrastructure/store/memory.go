package store

import (
	"context"
	"sync"

	"github.com/sdslens/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory ProductRepository. It backs the
// "memory" store type and the test suites; records do not survive a
// restart.
type MemoryStore struct {
	data  map[string]domain.ProductRecord
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory product store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]domain.ProductRecord),
	}
}

// GetByBarcode returns the stored record or domain.ErrProductNotFound.
func (s *MemoryStore) GetByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.data[barcode]
	if !exists {
		return nil, domain.ErrProductNotFound
	}

	// Copy so callers cannot mutate the stored record in place.
	out := record
	if record.SDSURL != nil {
		u := *record.SDSURL
		out.SDSURL = &u
	}
	return &out, nil
}

// Upsert stores the record keyed by its barcode, replacing any existing
// entry.
func (s *MemoryStore) Upsert(ctx context.Context, record *domain.ProductRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *record
	if record.SDSURL != nil {
		u := *record.SDSURL
		stored.SDSURL = &u
	}
	s.data[record.Barcode] = stored
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
