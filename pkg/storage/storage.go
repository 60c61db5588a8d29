// Package storage provides the memory store abstraction and its backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recallhq/recall/pkg/memory"
)

// Sentinel errors shared by all backends.
var (
	ErrInvalidContainer = errors.New("storage: container tag is required")
	ErrUnavailable      = errors.New("storage: backend unavailable")
)

// Store is the memory persistence collaborator. Every call is scoped by an
// opaque container tag that partitions records per user.
type Store interface {
	// List returns the records in a container matching the filter, newest first.
	List(ctx context.Context, containerTag string, filter Filter) ([]*memory.Record, error)

	// Get returns a single record or memory.ErrNotFound.
	Get(ctx context.Context, containerTag, id string) (*memory.Record, error)

	// Add stores a new record and returns it with its assigned ID.
	Add(ctx context.Context, containerTag, content string, md memory.Metadata) (*memory.Record, error)

	// Update applies a patch and returns the updated record or memory.ErrNotFound.
	Update(ctx context.Context, containerTag, id string, patch memory.Patch) (*memory.Record, error)

	// Delete removes a record. Deleting an unknown id returns memory.ErrNotFound.
	Delete(ctx context.Context, containerTag, id string) error

	// Search performs a backend-native text search.
	Search(ctx context.Context, containerTag, query string, limit int) ([]*memory.Record, error)

	// Close releases backend resources.
	Close() error
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type     memory.Type
	Subject  string
	Reviewed *bool
	Limit    int
	Offset   int
}

// Match reports whether a record passes the filter predicates.
// Limit and Offset are applied by Page.
func (f Filter) Match(r *memory.Record) bool {
	if f.Type != "" && r.Metadata.Type != f.Type {
		return false
	}
	if f.Subject != "" && !strings.EqualFold(r.Metadata.Subject, f.Subject) {
		return false
	}
	if f.Reviewed != nil && r.Metadata.Reviewed != *f.Reviewed {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered, ordered slice.
func (f Filter) Page(records []*memory.Record) []*memory.Record {
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return nil
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// CheckContainer validates a container tag.
func CheckContainer(containerTag string) error {
	if strings.TrimSpace(containerTag) == "" {
		return ErrInvalidContainer
	}
	return nil
}

// NewRecord builds a normalized record ready to be persisted.
func NewRecord(containerTag, content string, md memory.Metadata, now time.Time) (*memory.Record, error) {
	if err := CheckContainer(containerTag); err != nil {
		return nil, err
	}
	if err := memory.ValidateContent(content); err != nil {
		return nil, err
	}
	r := &memory.Record{
		ID:           uuid.NewString(),
		ContainerTag: containerTag,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     md,
	}
	r.Metadata = r.Clone().Metadata
	r.Normalize()
	return r, nil
}

// SortNewest orders records by CreatedAt descending, ties broken by ID.
func SortNewest(records []*memory.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// NotFound wraps memory.ErrNotFound with the missing id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", memory.ErrNotFound, id)
}

// UnavailableError indicates that the backend could not serve the request.
type UnavailableError struct {
	Backend string
	Cause   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("storage %s unavailable: %v", e.Backend, e.Cause)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Cause}
}

// SerializationError indicates a failure in record (de)serialization.
type SerializationError struct {
	Operation string
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error during %s: %v", e.Operation, e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}
