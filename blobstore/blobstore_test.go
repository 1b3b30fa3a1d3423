package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "g.graph.lz4", strings.NewReader("payload-a")))
	require.NoError(t, s.Put(ctx, "g.properties.lz4", strings.NewReader("payload-b")))
	require.NoError(t, s.Put(ctx, "other", strings.NewReader("x")))

	rc, err := s.Open(ctx, "g.graph.lz4")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload-a", string(data))

	names, err := s.List(ctx, "g.")
	require.NoError(t, err)
	assert.Equal(t, []string{"g.graph.lz4", "g.properties.lz4"}, names)

	require.NoError(t, s.Delete(ctx, "g.graph.lz4"))
	require.NoError(t, s.Delete(ctx, "g.graph.lz4")) // idempotent
	_, err = s.Open(ctx, "g.graph.lz4")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestTransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local := filepath.Join(dir, "g")

	files := map[string]string{
		".graph":      "bits bits bits bits bits bits bits bits",
		".properties": "nodes=3\nversion=1\n",
		".offsets":    "gaps",
		// no .ef: optional artifacts may be absent
	}
	for suffix, content := range files {
		require.NoError(t, os.WriteFile(local+suffix, []byte(content), 0o644))
	}

	store := NewMemoryStore()
	tr := NewTransfer(store, WithRateLimit(1<<20), WithParallelism(2))
	require.NoError(t, tr.Push(ctx, local, "remote/g"))

	names, err := store.List(ctx, "remote/g")
	require.NoError(t, err)
	assert.Len(t, names, 3)
	for _, name := range names {
		assert.True(t, strings.HasSuffix(name, ".lz4"), name)
	}

	pulled := filepath.Join(dir, "pulled", "g")
	require.NoError(t, tr.Pull(ctx, "remote/g", pulled))
	for suffix, content := range files {
		data, err := os.ReadFile(pulled + suffix)
		require.NoError(t, err, suffix)
		assert.Equal(t, content, string(data), suffix)
	}
	_, err = os.Stat(pulled + ".ef")
	assert.True(t, os.IsNotExist(err))
}

func TestTransferMissingRequired(t *testing.T) {
	ctx := context.Background()
	tr := NewTransfer(NewMemoryStore())
	err := tr.Push(ctx, filepath.Join(t.TempDir(), "absent"), "g")
	require.Error(t, err)

	err = tr.Pull(ctx, "absent", filepath.Join(t.TempDir(), "g"))
	require.Error(t, err)
}
