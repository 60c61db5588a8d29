// Package sqlite provides a SQLite-backed implementation of the Store interface using GORM.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
	"github.com/recallhq/recall/pkg/storage/index"
)

// Config holds configuration for Store.
type Config struct {
	Path string
}

// row is the persisted shape of a record. Filterable fields are columns;
// the full metadata is kept as JSON.
type row struct {
	ID           string    `gorm:"primaryKey"`
	ContainerTag string    `gorm:"index:idx_memories_container_created,priority:1;not null"`
	Content      string    `gorm:"not null"`
	Type         string    `gorm:"index"`
	Subject      string
	Reviewed     bool
	Metadata     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"index:idx_memories_container_created,priority:2;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (row) TableName() string {
	return "memories"
}

// Store implements storage.Store on SQLite.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New opens the database at config.Path and migrates the schema.
func New(config *Config) (*Store, error) {
	if dir := filepath.Dir(config.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(config.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &storage.UnavailableError{Backend: "sqlite", Cause: err}
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY under concurrent writes.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, &storage.UnavailableError{Backend: "sqlite", Cause: err}
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&row{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func toRow(r *memory.Record) (*row, error) {
	md, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, &storage.SerializationError{Operation: "marshal", Cause: err}
	}
	return &row{
		ID:           r.ID,
		ContainerTag: r.ContainerTag,
		Content:      r.Content,
		Type:         string(r.Metadata.Type),
		Subject:      r.Metadata.Subject,
		Reviewed:     r.Metadata.Reviewed,
		Metadata:     string(md),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func (rw *row) record() (*memory.Record, error) {
	r := &memory.Record{
		ID:           rw.ID,
		ContainerTag: rw.ContainerTag,
		Content:      rw.Content,
		CreatedAt:    rw.CreatedAt,
		UpdatedAt:    rw.UpdatedAt,
	}
	if rw.Metadata != "" {
		if err := json.Unmarshal([]byte(rw.Metadata), &r.Metadata); err != nil {
			return nil, &storage.SerializationError{Operation: "unmarshal", Cause: err}
		}
	}
	r.Normalize()
	return r, nil
}

func (s *Store) scoped(ctx context.Context, containerTag string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&row{}).Where("container_tag = ?", containerTag)
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, containerTag string, filter storage.Filter) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}

	q := s.scoped(ctx, containerTag)
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Subject != "" {
		q = q.Where("LOWER(subject) = LOWER(?)", filter.Subject)
	}
	if filter.Reviewed != nil {
		q = q.Where("reviewed = ?", *filter.Reviewed)
	}

	var rows []row
	if err := q.Order("created_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrapErr(err)
	}
	out, err := records(rows)
	if err != nil {
		return nil, err
	}
	storage.SortNewest(out)
	return filter.Page(out), nil
}

func records(rows []row) ([]*memory.Record, error) {
	out := make([]*memory.Record, 0, len(rows))
	for i := range rows {
		r, err := rows[i].record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, containerTag, id string) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	var rw row
	if err := s.scoped(ctx, containerTag).Where("id = ?", id).First(&rw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.NotFound(id)
		}
		return nil, wrapErr(err)
	}
	return rw.record()
}

// Add inserts a new record.
func (s *Store) Add(ctx context.Context, containerTag, content string, md memory.Metadata) (*memory.Record, error) {
	r, err := storage.NewRecord(containerTag, content, md, s.now())
	if err != nil {
		return nil, err
	}
	rw, err := toRow(r)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(rw).Error; err != nil {
		return nil, wrapErr(err)
	}
	return r, nil
}

// Update applies a patch in a transaction.
func (s *Store) Update(ctx context.Context, containerTag, id string, patch memory.Patch) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	if patch.Content != nil {
		if err := memory.ValidateContent(*patch.Content); err != nil {
			return nil, err
		}
	}

	var updated *memory.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rw row
		if err := tx.Where("container_tag = ? AND id = ?", containerTag, id).First(&rw).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.NotFound(id)
			}
			return err
		}
		r, err := rw.record()
		if err != nil {
			return err
		}
		r.Apply(patch, s.now())
		next, err := toRow(r)
		if err != nil {
			return err
		}
		updated = r
		return tx.Save(next).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return updated, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, containerTag, id string) error {
	if err := storage.CheckContainer(containerTag); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("container_tag = ? AND id = ?", containerTag, id).Delete(&row{})
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NotFound(id)
	}
	return nil
}

// Search matches query terms with LIKE and ranks by the number of distinct
// terms each record contains.
func (s *Store) Search(ctx context.Context, containerTag, query string, limit int) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	terms := index.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	clauses := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, t := range terms {
		clauses[i] = "LOWER(content) LIKE ?"
		args[i] = "%" + t + "%"
	}

	var rows []row
	err := s.scoped(ctx, containerTag).
		Where(strings.Join(clauses, " OR "), args...).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	out, err := records(rows)
	if err != nil {
		return nil, err
	}

	score := func(r *memory.Record) int {
		content := strings.ToLower(r.Content)
		n := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				n++
			}
		}
		return n
	}
	sort.SliceStable(out, func(i, j int) bool {
		return score(out[i]) > score(out[j])
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrapErr(err error) error {
	var serr *storage.SerializationError
	switch {
	case errors.Is(err, memory.ErrNotFound), errors.As(err, &serr):
		return err
	default:
		return &storage.UnavailableError{Backend: "sqlite", Cause: err}
	}
}
