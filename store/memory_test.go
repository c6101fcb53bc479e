package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing document returns ErrNotFound", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Get(ctx, Teams, "team-1", "team-1")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create then get", func(t *testing.T) {
		s := NewMemoryStore()
		created, err := s.Create(ctx, Teams, Doc{ID: "team-1", PartitionKey: "team-1", Data: json.RawMessage(`{"name":"Alpha"}`)})
		require.NoError(t, err)
		require.NotEmpty(t, created.Version)

		got, err := s.Get(ctx, Teams, "team-1", "team-1")
		require.NoError(t, err)
		require.JSONEq(t, `{"name":"Alpha"}`, string(got.Data))
		require.Equal(t, created.Version, got.Version)
	})

	t.Run("create duplicate returns ErrAlreadyExists", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Create(ctx, Teams, Doc{ID: "team-1", PartitionKey: "team-1", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)
		_, err = s.Create(ctx, Teams, Doc{ID: "team-1", PartitionKey: "team-1", Data: json.RawMessage(`{}`)})
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("replace with current version succeeds and rotates the token", func(t *testing.T) {
		s := NewMemoryStore()
		created, err := s.Create(ctx, Teams, Doc{ID: "team-1", PartitionKey: "team-1", Data: json.RawMessage(`{"v":"a"}`)})
		require.NoError(t, err)

		updated, err := s.Replace(ctx, Teams, "team-1", "team-1", json.RawMessage(`{"v":"b"}`), created.Version)
		require.NoError(t, err)
		require.NotEqual(t, created.Version, updated.Version)
	})

	t.Run("replace with stale version returns ErrVersionConflict", func(t *testing.T) {
		s := NewMemoryStore()
		created, err := s.Create(ctx, Teams, Doc{ID: "team-1", PartitionKey: "team-1", Data: json.RawMessage(`{"v":"a"}`)})
		require.NoError(t, err)

		_, err = s.Replace(ctx, Teams, "team-1", "team-1", json.RawMessage(`{"v":"b"}`), created.Version)
		require.NoError(t, err)

		_, err = s.Replace(ctx, Teams, "team-1", "team-1", json.RawMessage(`{"v":"c"}`), created.Version)
		require.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("delete removes the document", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Create(ctx, Teams, Doc{ID: "team-1", PartitionKey: "team-1", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, Teams, "team-1", "team-1"))
		err = s.Delete(ctx, Teams, "team-1", "team-1")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed := []Doc{
		{ID: "p-1", PartitionKey: "team-1", Data: json.RawMessage(`{"alias":"Alpha-Hacker1","external_identity":"ada"}`)},
		{ID: "p-2", PartitionKey: "team-1", Data: json.RawMessage(`{"alias":"Alpha-Hacker2","external_identity":"bob"}`)},
		{ID: "p-3", PartitionKey: "team-2", Data: json.RawMessage(`{"alias":"Bravo-Hacker1","external_identity":"cyd"}`)},
	}
	for _, doc := range seed {
		_, err := s.Create(ctx, Participants, doc)
		require.NoError(t, err)
	}

	t.Run("cross-partition scan sees every partition", func(t *testing.T) {
		docs, err := s.Query(ctx, Participants, Filter{})
		require.NoError(t, err)
		require.Len(t, docs, 3)
	})

	t.Run("partition-scoped query", func(t *testing.T) {
		docs, err := s.Query(ctx, Participants, Filter{PartitionKey: "team-1"})
		require.NoError(t, err)
		require.Len(t, docs, 2)
	})

	t.Run("field equality filter", func(t *testing.T) {
		docs, err := s.Query(ctx, Participants, Filter{Equals: map[string]string{"external_identity": "cyd"}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		require.Equal(t, "p-3", docs[0].ID)
	})

	t.Run("no matches returns empty", func(t *testing.T) {
		docs, err := s.Query(ctx, Participants, Filter{Equals: map[string]string{"alias": "nobody"}})
		require.NoError(t, err)
		require.Empty(t, docs)
	})
}

func TestMemoryStoreRelocate(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the document between partitions", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Create(ctx, Participants, Doc{ID: "p-1", PartitionKey: "team-1", Data: json.RawMessage(`{"team_id":"team-1"}`)})
		require.NoError(t, err)

		moved, err := s.Relocate(ctx, Participants, "p-1", "team-1", "team-2", json.RawMessage(`{"team_id":"team-2"}`))
		require.NoError(t, err)
		require.Equal(t, "team-2", moved.PartitionKey)

		_, err = s.Get(ctx, Participants, "p-1", "team-1")
		require.ErrorIs(t, err, ErrNotFound)

		got, err := s.Get(ctx, Participants, "p-1", "team-2")
		require.NoError(t, err)
		require.JSONEq(t, `{"team_id":"team-2"}`, string(got.Data))
	})

	t.Run("stale source partition falls back to a scan", func(t *testing.T) {
		s := NewMemoryStore()
		// Document physically lives in team-3; the caller believes team-1.
		_, err := s.Create(ctx, Participants, Doc{ID: "p-1", PartitionKey: "team-3", Data: json.RawMessage(`{}`)})
		require.NoError(t, err)

		moved, err := s.Relocate(ctx, Participants, "p-1", "team-1", "team-2", json.RawMessage(`{}`))
		require.NoError(t, err)
		require.Equal(t, "team-2", moved.PartitionKey)

		_, err = s.Get(ctx, Participants, "p-1", "team-3")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("document missing everywhere returns ErrNotFound", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Relocate(ctx, Participants, "ghost", "team-1", "team-2", json.RawMessage(`{}`))
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreContextCancellation(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, Teams, "team-1", "team-1")
	require.ErrorIs(t, err, ErrUnavailable)
	require.True(t, errors.Is(err, ErrUnavailable))
}
