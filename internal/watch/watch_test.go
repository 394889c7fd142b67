package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, paths ...string) <-chan string {
	t.Helper()
	w, err := New(nil, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Add(paths...))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string) { changes <- path })
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return changes
}

func next(t *testing.T, changes <-chan string) string {
	t.Helper()
	select {
	case path := <-changes:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return ""
	}
}

func TestWatchFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "app.json")
	other := filepath.Join(dir, "notes.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("{}"), 0o644))

	changes := start(t, target)

	// siblings of a watched file are ignored
	require.NoError(t, os.WriteFile(other, []byte(`{"a": 1}`), 0o644))
	require.NoError(t, os.WriteFile(target, []byte(`{"a": 1}`), 0o644))
	assert.Equal(t, target, next(t, changes))
}

func TestWatchDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	changes := start(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0o644))
	created := filepath.Join(dir, "values.yaml")
	require.NoError(t, os.WriteFile(created, []byte("a: 1\n"), 0o644))
	assert.Equal(t, created, next(t, changes))
}

func TestWatchDebounce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "app.yml")
	require.NoError(t, os.WriteFile(target, []byte("a: 0\n"), 0o644))

	changes := start(t, target)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("a: 1\n"), 0o644))
	}
	assert.Equal(t, target, next(t, changes))

	select {
	case path := <-changes:
		t.Fatalf("unexpected second change for %s", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestAddMissingPath(t *testing.T) {
	t.Parallel()
	w, err := New(nil, 0)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing.json")))
}

func TestWithin(t *testing.T) {
	t.Parallel()
	assert.True(t, within("/a", "/a/b.json"))
	assert.True(t, within("/a", "/a/b/c.json"))
	assert.False(t, within("/a", "/ab.json"))
	assert.False(t, within("/a/b", "/a/c.json"))
}
