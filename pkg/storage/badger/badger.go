// Package badger provides a Badger-backed implementation of the Store interface.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
	"github.com/recallhq/recall/pkg/storage/index"
)

const keyPrefix = "memory:"

// Config holds configuration for Store.
type Config struct {
	Path              string
	SyncWrites        bool
	ValueLogFileSize  int64
	NumVersionsToKeep int

	// L1CacheSize bounds the in-process LRU of hot records. Zero disables it.
	L1CacheSize int
}

// Store implements storage.Store on top of Badger with an L1 record cache
// and a lazily built BM25 index per container.
type Store struct {
	db    *badger.DB
	l1    *recordCache
	index *index.BM25
	now   func() time.Time
}

// New opens (or creates) a Badger database at config.Path.
func New(config *Config) (*Store, error) {
	opts := badger.DefaultOptions(config.Path)
	opts.SyncWrites = config.SyncWrites
	if config.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = config.ValueLogFileSize
	}
	if config.NumVersionsToKeep > 0 {
		opts.NumVersionsToKeep = config.NumVersionsToKeep
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &storage.UnavailableError{Backend: "badger", Cause: err}
	}
	return NewWithDB(db, config.L1CacheSize), nil
}

// NewWithDB wraps an already opened database. The store takes ownership of db.
func NewWithDB(db *badger.DB, l1Size int) *Store {
	return &Store{
		db:    db,
		l1:    newRecordCache(l1Size),
		index: index.NewBM25(0, 0),
		now:   time.Now,
	}
}

// Container tags are escaped so that a tag containing ':' cannot alias another tag's prefix.
func recordKey(containerTag, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", keyPrefix, url.QueryEscape(containerTag), id))
}

func containerPrefix(containerTag string) []byte {
	return []byte(fmt.Sprintf("%s%s:", keyPrefix, url.QueryEscape(containerTag)))
}

func serialize(r *memory.Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, &storage.SerializationError{Operation: "marshal", Cause: err}
	}
	return data, nil
}

func deserialize(data []byte) (*memory.Record, error) {
	var r memory.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &storage.SerializationError{Operation: "unmarshal", Cause: err}
	}
	return &r, nil
}

// List scans a container prefix and returns matching records, newest first.
func (s *Store) List(ctx context.Context, containerTag string, filter storage.Filter) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	all, err := s.all(containerTag)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	storage.SortNewest(out)
	return filter.Page(out), nil
}

func (s *Store) all(containerTag string) ([]*memory.Record, error) {
	var records []*memory.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = containerPrefix(containerTag)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r *memory.Record
			err := it.Item().Value(func(val []byte) error {
				var derr error
				r, derr = deserialize(val)
				return derr
			})
			if err != nil {
				return err
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return records, nil
}

// Get retrieves a record from L1 first, then Badger with promotion.
func (s *Store) Get(ctx context.Context, containerTag, id string) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	key := recordKey(containerTag, id)
	if r, ok := s.l1.get(string(key)); ok {
		return r, nil
	}

	var r *memory.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var gerr error
		r, gerr = getInTxn(txn, key, id)
		return gerr
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	s.l1.put(string(key), r)
	return r, nil
}

func getInTxn(txn *badger.Txn, key []byte, id string) (*memory.Record, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.NotFound(id)
		}
		return nil, err
	}
	var r *memory.Record
	err = item.Value(func(val []byte) error {
		var derr error
		r, derr = deserialize(val)
		return derr
	})
	return r, err
}

// Add persists a new record.
func (s *Store) Add(ctx context.Context, containerTag, content string, md memory.Metadata) (*memory.Record, error) {
	r, err := storage.NewRecord(containerTag, content, md, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.write(r); err != nil {
		return nil, err
	}
	return r.Clone(), nil
}

func (s *Store) write(r *memory.Record) error {
	data, err := serialize(r)
	if err != nil {
		return err
	}
	key := recordKey(r.ContainerTag, r.ID)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return wrapErr(err)
	}
	s.l1.put(string(key), r)
	if s.index.Loaded(r.ContainerTag) {
		s.index.Put(r.ID, r.ContainerTag, r.Content)
	}
	return nil
}

// Update applies a patch inside a read-write transaction.
func (s *Store) Update(ctx context.Context, containerTag, id string, patch memory.Patch) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	if patch.Content != nil {
		if err := memory.ValidateContent(*patch.Content); err != nil {
			return nil, err
		}
	}

	key := recordKey(containerTag, id)
	var updated *memory.Record
	err := s.db.Update(func(txn *badger.Txn) error {
		r, err := getInTxn(txn, key, id)
		if err != nil {
			return err
		}
		r.Apply(patch, s.now())
		data, err := serialize(r)
		if err != nil {
			return err
		}
		updated = r
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, wrapErr(err)
	}

	s.l1.put(string(key), updated)
	if s.index.Loaded(containerTag) {
		s.index.Put(updated.ID, containerTag, updated.Content)
	}
	return updated.Clone(), nil
}

// Delete removes a record from both tiers.
func (s *Store) Delete(ctx context.Context, containerTag, id string) error {
	if err := storage.CheckContainer(containerTag); err != nil {
		return err
	}
	key := recordKey(containerTag, id)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.NotFound(id)
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return wrapErr(err)
	}
	s.l1.remove(string(key))
	s.index.Remove(id)
	return nil
}

// Search ranks records with BM25, loading the container into the index on first use.
func (s *Store) Search(ctx context.Context, containerTag, query string, limit int) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	if !s.index.Loaded(containerTag) {
		all, err := s.all(containerTag)
		if err != nil {
			return nil, err
		}
		docs := make(map[string]string, len(all))
		for _, r := range all {
			docs[r.ID] = r.Content
		}
		s.index.Load(containerTag, docs)
	}

	hits := s.index.Search(containerTag, query, limit)
	out := make([]*memory.Record, 0, len(hits))
	for _, h := range hits {
		r, err := s.Get(ctx, containerTag, h.ID)
		if errors.Is(err, memory.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// CacheStats reports the L1 hit ratio and total lookups.
func (s *Store) CacheStats() (float64, int64) {
	return s.l1.hitRate()
}

// Close runs value log GC and closes the database.
func (s *Store) Close() error {
	// GC errors (usually ErrNoRewrite) do not block shutdown.
	_ = s.db.RunValueLogGC(0.5)
	return s.db.Close()
}

// wrapErr passes domain errors through and marks everything else unavailable.
func wrapErr(err error) error {
	var serr *storage.SerializationError
	switch {
	case errors.Is(err, memory.ErrNotFound), errors.As(err, &serr):
		return err
	default:
		return &storage.UnavailableError{Backend: "badger", Cause: err}
	}
}
