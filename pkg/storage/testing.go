package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/memory"
)

// StoreTestSuite defines a conformance suite that can be run against any Store implementation.
type StoreTestSuite struct {
	NewStore func(t *testing.T) Store

	// SkipSearch disables the search subtest for backends without text search.
	SkipSearch bool
}

// RunAllTests runs all store tests against the provided implementation.
func (s *StoreTestSuite) RunAllTests(t *testing.T) {
	t.Run("CRUD", s.TestCRUD)
	t.Run("ListFilter", s.TestListFilter)
	t.Run("ListPagination", s.TestListPagination)
	t.Run("ContainerIsolation", s.TestContainerIsolation)
	t.Run("ReviewRoundTrip", s.TestReviewRoundTrip)
	t.Run("ErrorHandling", s.TestErrorHandling)
	t.Run("ConcurrentAccess", s.TestConcurrentAccess)
	if !s.SkipSearch {
		t.Run("Search", s.TestSearch)
	}
}

// TestCRUD tests the create, read, update and delete cycle.
func (s *StoreTestSuite) TestCRUD(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	created, err := store.Add(ctx, "user-1", "Binary search runs in O(log n)", memory.Metadata{
		Type:     memory.TypeStudy,
		Subject:  "Algorithms",
		Priority: memory.PriorityHigh,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "user-1", created.ContainerTag)
	assert.Equal(t, memory.TypeStudy, created.Metadata.Type)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Content, got.Content)
	assert.Equal(t, "Algorithms", got.Metadata.Subject)
	assert.Equal(t, memory.PriorityHigh, got.Metadata.Priority)

	content := "Binary search needs sorted input"
	md := got.Metadata
	md.Subject = "Searching"
	updated, err := store.Update(ctx, "user-1", created.ID, memory.Patch{Content: &content, Metadata: &md})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, "Searching", updated.Metadata.Subject)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	got, err = store.Get(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)

	require.NoError(t, store.Delete(ctx, "user-1", created.ID))
	_, err = store.Get(ctx, "user-1", created.ID)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

// TestListFilter tests filtering by type, subject and review state.
func (s *StoreTestSuite) TestListFilter(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	seed := []memory.Metadata{
		{Type: memory.TypeStudy, Subject: "Math"},
		{Type: memory.TypeStudy, Subject: "Physics", Reviewed: true},
		{Type: memory.TypeMeeting},
		{Type: memory.TypeInterview, Company: "Acme", Reviewed: true},
	}
	for i, md := range seed {
		_, err := store.Add(ctx, "user-1", fmt.Sprintf("note %d", i), md)
		require.NoError(t, err)
	}

	all, err := store.List(ctx, "user-1", Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	study, err := store.List(ctx, "user-1", Filter{Type: memory.TypeStudy})
	require.NoError(t, err)
	assert.Len(t, study, 2)

	math, err := store.List(ctx, "user-1", Filter{Subject: "math"})
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, "Math", math[0].Metadata.Subject)

	reviewed := true
	done, err := store.List(ctx, "user-1", Filter{Reviewed: &reviewed})
	require.NoError(t, err)
	assert.Len(t, done, 2)
}

// TestListPagination tests Limit and Offset.
func (s *StoreTestSuite) TestListPagination(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Add(ctx, "user-1", fmt.Sprintf("note %d", i), memory.Metadata{})
		require.NoError(t, err)
	}

	page, err := store.List(ctx, "user-1", Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = store.List(ctx, "user-1", Filter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = store.List(ctx, "user-1", Filter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

// TestContainerIsolation tests that container tags partition records.
func (s *StoreTestSuite) TestContainerIsolation(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	a, err := store.Add(ctx, "user-a", "alpha", memory.Metadata{})
	require.NoError(t, err)
	_, err = store.Add(ctx, "user-b", "beta", memory.Metadata{})
	require.NoError(t, err)

	list, err := store.List(ctx, "user-b", Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "beta", list[0].Content)

	_, err = store.Get(ctx, "user-b", a.ID)
	assert.ErrorIs(t, err, memory.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "user-b", a.ID), memory.ErrNotFound)
}

// TestReviewRoundTrip tests that review and quiz metadata survive persistence.
func (s *StoreTestSuite) TestReviewRoundTrip(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	created, err := store.Add(ctx, "user-1", "Ohm's law V = IR", memory.Metadata{Type: memory.TypeStudy})
	require.NoError(t, err)

	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	md := created.Metadata
	md.Reviewed = true
	md.LastReviewed = memory.Time(created.CreatedAt.Add(time.Minute))
	md.QuizAttempts = memory.Int(4)
	md.CorrectAttempts = memory.Int(3)
	md.Deadline = &deadline
	_, err = store.Update(ctx, "user-1", created.ID, memory.Patch{Metadata: &md})
	require.NoError(t, err)

	got, err := store.Get(ctx, "user-1", created.ID)
	require.NoError(t, err)
	assert.True(t, got.Metadata.Reviewed)
	require.NotNil(t, got.Metadata.LastReviewed)
	require.NotNil(t, got.Metadata.RetentionScore)
	assert.InDelta(t, 0.75, *got.Metadata.RetentionScore, 1e-9)
	require.NotNil(t, got.Metadata.Deadline)
	assert.True(t, deadline.Equal(*got.Metadata.Deadline))
}

// TestErrorHandling tests invalid input and missing records.
func (s *StoreTestSuite) TestErrorHandling(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_, err := store.Add(ctx, "", "content", memory.Metadata{})
	assert.ErrorIs(t, err, ErrInvalidContainer)

	_, err = store.Add(ctx, "user-1", "   ", memory.Metadata{})
	assert.ErrorIs(t, err, memory.ErrInvalidRecord)

	_, err = store.Get(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, memory.ErrNotFound)

	content := "x"
	_, err = store.Update(ctx, "user-1", "missing", memory.Patch{Content: &content})
	assert.ErrorIs(t, err, memory.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "user-1", "missing"), memory.ErrNotFound)
}

// TestConcurrentAccess tests concurrent writes and reads.
func (s *StoreTestSuite) TestConcurrentAccess(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Add(ctx, "user-1", fmt.Sprintf("concurrent %d", i), memory.Metadata{}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := store.List(ctx, "user-1", Filter{})
	require.NoError(t, err)
	assert.Len(t, list, n)
}

// TestSearch tests backend text search.
func (s *StoreTestSuite) TestSearch(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_, err := store.Add(ctx, "user-1", "Kubernetes pods restart on failure", memory.Metadata{})
	require.NoError(t, err)
	_, err = store.Add(ctx, "user-1", "Buy milk and eggs", memory.Metadata{})
	require.NoError(t, err)
	_, err = store.Add(ctx, "user-2", "Kubernetes services", memory.Metadata{})
	require.NoError(t, err)

	hits, err := store.Search(ctx, "user-1", "kubernetes", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Content, "Kubernetes pods")

	hits, err = store.Search(ctx, "user-1", "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
