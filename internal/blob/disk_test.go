package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_PutAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	d, err := NewDisk(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := d.Put(ctx, "1-2-photo.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1-2-photo.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "1-2-photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, d.Delete(ctx, "1-2-photo.jpg"))
	_, err = os.Stat(filepath.Join(dir, "1-2-photo.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, d.Delete(ctx, "1-2-photo.jpg"), "deleting twice is fine")
}

func TestDisk_EscapesURL(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	url, err := d.Put(context.Background(), "1-2-a#b.jpg", "image/jpeg", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1-2-a%23b.jpg", url)
}

func TestDisk_RefusesOverwrite(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Put(ctx, "same.jpg", "image/jpeg", strings.NewReader("one"), 3)
	require.NoError(t, err)
	_, err = d.Put(ctx, "same.jpg", "image/jpeg", strings.NewReader("two"), 3)
	assert.Error(t, err)
}

func TestDisk_RejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "..", "../escape.jpg", "sub/dir.jpg"} {
		_, err := d.Put(ctx, key, "image/jpeg", strings.NewReader("x"), 1)
		assert.Error(t, err, "key %q", key)
	}
}
