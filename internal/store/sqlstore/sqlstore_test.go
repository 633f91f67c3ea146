package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "memories.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestCreateAndListMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 6, 14, 30, 0, 0, time.UTC)

	older := &models.Memory{
		Name:      "Older",
		Message:   "congrats",
		CreatedAt: base,
		Images: []models.Image{
			{Data: "/uploads/1.jpg", ContentType: "image/jpeg"},
			{Data: "/uploads/2.png", ContentType: "image/png"},
			{Data: "/uploads/3.gif", ContentType: "image/gif"},
		},
	}
	newer := &models.Memory{
		Name:      "Newer",
		CreatedAt: base.Add(time.Hour),
		Images:    []models.Image{{Data: "/uploads/4.jpg", ContentType: "image/jpeg"}},
	}
	require.NoError(t, s.CreateMemory(ctx, older))
	require.NoError(t, s.CreateMemory(ctx, newer))
	assert.NotEmpty(t, older.ID)

	got, err := s.ListMemories(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Newer", got[0].Name)
	assert.Equal(t, "Older", got[1].Name)
	assert.Equal(t, "congrats", got[1].Message)

	require.Len(t, got[1].Images, 3)
	assert.Equal(t, "/uploads/1.jpg", got[1].Images[0].Data)
	assert.Equal(t, "/uploads/2.png", got[1].Images[1].Data)
	assert.Equal(t, "/uploads/3.gif", got[1].Images[2].Data)
	assert.Equal(t, "image/png", got[1].Images[1].ContentType)
}

func TestListMemories_Empty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ListMemories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUsers_UniqueUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUserByUsername(ctx, "admin")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "hash"}))

	err = s.CreateUser(ctx, &models.User{Username: "admin", PasswordHash: "again"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	u, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)
}
