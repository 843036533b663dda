package memory

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps records in a map and remembers the order in which keys
// were first written. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(key string, value json.RawMessage) (Record, error) {
	if err := validate(key, value); err != nil {
		return Record{}, err
	}
	rec := Record{Value: clone(bytes.TrimSpace(value)), StoredAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = rec
	return Record{Value: clone(rec.Value), StoredAt: rec.StoredAt}, nil
}

func (s *MemoryStore) Get(key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{Value: clone(rec.Value), StoredAt: rec.StoredAt}, nil
}

// List returns entries in first-write order.
func (s *MemoryStore) List() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		rec := s.records[k]
		out = append(out, Entry{Key: k, Record: Record{Value: clone(rec.Value), StoredAt: rec.StoredAt}})
	}
	return out, nil
}

// Close drops every record.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	s.order = nil
	return nil
}
