package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case name := <-ch:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return ""
	}
}

func TestWatcher_WorkingTreeChange(t *testing.T) {
	dir := initRepo(t)
	changed := make(chan string, 10)

	w, err := New(20*time.Millisecond, func(repo string) { changed <- repo }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add("api", dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))

	assert.Equal(t, "api", waitFor(t, changed))
}

func TestWatcher_GitDirChange(t *testing.T) {
	dir := initRepo(t)
	changed := make(chan string, 10)

	w, err := New(20*time.Millisecond, func(repo string) { changed <- repo }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add("api", dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "MERGE_HEAD"), []byte("abc\n"), 0644))

	assert.Equal(t, "api", waitFor(t, changed))
}

func TestWatcher_Debounces(t *testing.T) {
	dir := initRepo(t)
	changed := make(chan string, 10)

	w, err := New(300*time.Millisecond, func(repo string) { changed <- repo }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add("api", dir))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte{byte('a' + i)}, 0644))
	}

	assert.Equal(t, "api", waitFor(t, changed))
	select {
	case <-changed:
		t.Error("expected a single refresh for a burst of writes")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_AddNotRepository(t *testing.T) {
	w, err := New(time.Millisecond, func(string) {}, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Add("tmp", t.TempDir()))
}

func TestWatcher_Close(t *testing.T) {
	w, err := New(time.Millisecond, func(string) {}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add("api", initRepo(t)), ErrClosed)
}

func TestIsIgnoredDir(t *testing.T) {
	root := "/repo"
	tests := []struct {
		path string
		want bool
	}{
		{"/repo/src", false},
		{"/repo/src/.git", false},
		{"/repo/.git", true},
		{"/repo/.git/objects", true},
		{"/repo/.git/rebase-merge", false},
		{"/repo/.git/rebase-apply", false},
		{"/repo/.git/refs/rebase-merge", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isIgnoredDir(root, tt.path))
		})
	}
}
