package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&Config{Path: filepath.Join(t.TempDir(), "recall.db")})
	require.NoError(t, err)
	return s
}

func TestStoreSuite(t *testing.T) {
	suite := &storage.StoreTestSuite{
		NewStore: func(t *testing.T) storage.Store {
			return newTestStore(t)
		},
	}
	suite.RunAllTests(t)
}

func TestStore_SearchRanksByMatchedTerms(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	_, err := s.Add(ctx, "u", "redis cluster failover", memory.Metadata{})
	require.NoError(t, err)
	both, err := s.Add(ctx, "u", "redis sentinel and cluster sharding", memory.Metadata{})
	require.NoError(t, err)
	_, err = s.Add(ctx, "u", "weekly groceries", memory.Metadata{})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "u", "sentinel cluster", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, both.ID, hits[0].ID)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recall.db")
	s, err := New(&Config{Path: path})
	require.NoError(t, err)

	r, err := s.Add(context.Background(), "u", "durable note", memory.Metadata{Type: memory.TypeMeeting})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(&Config{Path: path})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(context.Background(), "u", r.ID)
	require.NoError(t, err)
	assert.Equal(t, memory.TypeMeeting, got.Metadata.Type)
}
