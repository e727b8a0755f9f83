package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fieldlog.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_SaveLoadClear(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	want := Credentials{
		Access:   "access",
		Refresh:  "refresh",
		Identity: Identity{ID: uuid.New(), Email: "inspector@example.com", Name: "Inspector"},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	want.Access = "access-2"
	require.NoError(t, s.Save(ctx, want))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.Access)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Clear(ctx))
}

func TestStore_SurvivesReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	creds := Credentials{Access: "a", Refresh: "r", Identity: Identity{ID: uuid.New()}}
	require.NoError(t, s.Save(ctx, creds))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, *got)
}

func TestStore_MissingIdentity(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{Access: "a", Refresh: "r"}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Identity.Empty())
}
