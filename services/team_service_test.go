package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/storage"
	"github.com/hackdayhq/hackathon-system/store"
	"github.com/stretchr/testify/require"
)

func TestTeamService(t *testing.T) {
	ctx := context.Background()

	newEnv := func(uploader storage.FileUploader) (TeamService, repositories.TeamRepository) {
		teams := repositories.NewTeamRepository(store.NewMemoryStore())
		return NewTeamService(teams, uploader, nil, testLogger()), teams
	}

	t.Run("create assigns the next team number", func(t *testing.T) {
		service, _ := newEnv(nil)

		first, err := service.Create(ctx, "Rustaceans")
		require.NoError(t, err)
		require.Equal(t, 1, first.Number)
		require.Equal(t, "team-1", first.ID)

		second, err := service.Create(ctx, "Gophers")
		require.NoError(t, err)
		require.Equal(t, 2, second.Number)
	})

	t.Run("create requires a name", func(t *testing.T) {
		service, _ := newEnv(nil)
		_, err := service.Create(ctx, "   ")
		require.ErrorIs(t, err, ErrTeamNameRequired)
	})

	t.Run("delete refuses a non-empty team", func(t *testing.T) {
		service, teams := newEnv(nil)
		created, err := service.Create(ctx, "Gophers")
		require.NoError(t, err)
		require.NoError(t, addAliasToRoster(ctx, teams, created.ID, "Gophers-Hacker1"))

		err = service.Delete(ctx, created.ID)
		require.ErrorIs(t, err, ErrTeamNotEmpty)
	})

	t.Run("delete removes an empty team", func(t *testing.T) {
		service, teams := newEnv(nil)
		created, err := service.Create(ctx, "Gophers")
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, created.ID))
		_, err = teams.Get(ctx, created.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete of an unknown team", func(t *testing.T) {
		service, _ := newEnv(nil)
		err := service.Delete(ctx, "team-404")
		require.ErrorIs(t, err, ErrTeamNotFound)
	})

	t.Run("badge upload without storage configured", func(t *testing.T) {
		service, _ := newEnv(nil)
		created, err := service.Create(ctx, "Gophers")
		require.NoError(t, err)

		_, err = service.UploadBadge(ctx, created.ID, "image/png", bytes.NewReader([]byte("png")))
		require.ErrorIs(t, err, ErrBadgeStorageDisabled)
	})

	t.Run("badge upload stores the key and public URL", func(t *testing.T) {
		uploader := &fakeUploader{}
		service, teams := newEnv(uploader)
		created, err := service.Create(ctx, "Gophers")
		require.NoError(t, err)

		updated, err := service.UploadBadge(ctx, created.ID, "image/png", bytes.NewReader([]byte("png")))
		require.NoError(t, err)
		require.Equal(t, "badges/team-1", updated.BadgeKey)
		require.Equal(t, "https://cdn.example.com/badges/team-1", updated.BadgeURL)

		persisted, err := teams.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, updated.BadgeURL, persisted.BadgeURL)
	})
}

type fakeUploader struct {
	deleted []string
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key), ETag: "etag"}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return fmt.Sprintf("https://cdn.example.com/%s", key)
}
