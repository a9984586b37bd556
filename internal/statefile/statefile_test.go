package statefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	ctx := context.Background()

	in := map[string]string{"https://x.io/1": "2026-03-01T10:00:00Z"}
	require.NoError(t, WriteJSON(ctx, path, in))

	var out map[string]string
	require.NoError(t, ReadJSON(ctx, path, &out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp files are cleaned up")
	}
}

func TestReadMissing(t *testing.T) {
	var out map[string]string
	err := ReadJSON(context.Background(), filepath.Join(t.TempDir(), "nope.json"), &out)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, out)
}

func TestReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out map[string]string
	assert.Error(t, ReadJSON(context.Background(), path, &out))
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	unlock, err := Lock(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = Lock(ctx, path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())
	unlock2, err := Lock(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, unlock2())
}
