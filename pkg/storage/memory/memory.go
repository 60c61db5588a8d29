// Package memory provides an in-memory implementation of the Store interface.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
	"github.com/recallhq/recall/pkg/storage/index"
)

// Store implements storage.Store using in-memory maps.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]*memory.Record // containerTag -> id -> record
	index   *index.BM25
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]map[string]*memory.Record),
		index:   index.NewBM25(0, 0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts fully formed records, keeping their IDs and timestamps.
// Used by tests and fixture imports.
func (s *Store) Seed(records ...*memory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if err := storage.CheckContainer(r.ContainerTag); err != nil {
			return err
		}
		if err := r.Validate(); err != nil {
			return err
		}
		c := r.Clone()
		c.Normalize()
		s.putLocked(c)
	}
	return nil
}

func (s *Store) putLocked(r *memory.Record) {
	if s.records[r.ContainerTag] == nil {
		s.records[r.ContainerTag] = make(map[string]*memory.Record)
	}
	s.records[r.ContainerTag][r.ID] = r
	s.index.Put(r.ID, r.ContainerTag, r.Content)
}

// List returns records in a container, newest first.
func (s *Store) List(ctx context.Context, containerTag string, filter storage.Filter) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*memory.Record, 0, len(s.records[containerTag]))
	for _, r := range s.records[containerTag] {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	storage.SortNewest(out)
	return filter.Page(out), nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, containerTag, id string) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[containerTag][id]
	if !ok {
		return nil, storage.NotFound(id)
	}
	return r.Clone(), nil
}

// Add creates a new record.
func (s *Store) Add(ctx context.Context, containerTag, content string, md memory.Metadata) (*memory.Record, error) {
	r, err := storage.NewRecord(containerTag, content, md, s.now())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(r)
	return r.Clone(), nil
}

// Update applies a patch to an existing record.
func (s *Store) Update(ctx context.Context, containerTag, id string, patch memory.Patch) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	if patch.Content != nil {
		if err := memory.ValidateContent(*patch.Content); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[containerTag][id]
	if !ok {
		return nil, storage.NotFound(id)
	}
	updated := r.Clone()
	updated.Apply(patch, s.now())
	s.putLocked(updated)
	return updated.Clone(), nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, containerTag, id string) error {
	if err := storage.CheckContainer(containerTag); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[containerTag][id]; !ok {
		return storage.NotFound(id)
	}
	delete(s.records[containerTag], id)
	s.index.Remove(id)
	return nil
}

// Search ranks the container's records against the query with BM25.
func (s *Store) Search(ctx context.Context, containerTag, query string, limit int) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	hits := s.index.Search(containerTag, query, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*memory.Record, 0, len(hits))
	for _, h := range hits {
		if r, ok := s.records[containerTag][h.ID]; ok {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
