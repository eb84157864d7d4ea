package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, root string, rec *recorder) {
	t.Helper()
	w, err := New(root, 50*time.Millisecond, rec.handle, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDebouncedSave(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec)

	path := filepath.Join(root, "a.ts")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("line1\n"), 0o644))
	}

	assert.Eventually(t, func() bool { return len(rec.get()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{path}, rec.get())
}

func TestIgnoredFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	rec := &recorder{}
	startWatcher(t, root, rec)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden.ts"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.ts"), nil, 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.get())
}

func TestNewFolderIsWatched(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec)

	dir := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "b.go")
	require.NoError(t, os.WriteFile(path, []byte("package pkg\n"), 0o644))

	assert.Eventually(t, func() bool {
		paths := rec.get()
		return len(paths) == 1 && paths[0] == path
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewRequiresHandler(t *testing.T) {
	_, err := New(t.TempDir(), time.Millisecond, nil, nil)
	assert.Error(t, err)
}
