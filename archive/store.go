package archive

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	// ErrNotFound indicates no record is stored under an identifier.
	ErrNotFound = errors.New("record not found")

	// ErrMissingIdentifier indicates a record or request without an identifier value.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrConflict indicates a record would duplicate an identifier or a unique property.
	ErrConflict = errors.New("record conflict")
)

// Store persists encoded records grouped by source.
type Store interface {
	// Create stores data under id only if id is absent. It returns
	// ErrConflict when a record already exists, atomically with the write.
	Create(ctx context.Context, source, id string, data []byte) error

	// Put stores data under id, replacing any previous value.
	Put(ctx context.Context, source, id string, data []byte) error

	// Get returns the data stored under id or ErrNotFound.
	Get(ctx context.Context, source, id string) ([]byte, error)

	// Delete removes id or returns ErrNotFound.
	Delete(ctx context.Context, source, id string) error

	// List returns every record of source keyed by id.
	List(ctx context.Context, source string) (map[string][]byte, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	sources map[string]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sources: make(map[string]map[string][]byte)}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, source, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records(source)
	if _, exists := records[id]; exists {
		return ErrConflict
	}
	records[id] = slices.Clone(data)
	return nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, source, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records(source)[id] = slices.Clone(data)
	return nil
}

// records returns the map of source, creating it. Callers hold the write lock.
func (s *MemoryStore) records(source string) map[string][]byte {
	records, ok := s.sources[source]
	if !ok {
		records = make(map[string][]byte)
		s.sources[source] = records
	}
	return records
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, source, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.sources[source][id]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, source, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[source][id]; !ok {
		return ErrNotFound
	}
	delete(s.sources[source], id)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, source string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.sources[source]))
	for id, data := range s.sources[source] {
		out[id] = slices.Clone(data)
	}
	return out, nil
}
