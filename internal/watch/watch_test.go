package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visualeditor/internal/watch"
)

type applied struct {
	documentID string
	data       string
}

func newWatcher(t *testing.T, fn func(string, []byte) error) (*watch.Watcher, chan applied) {
	t.Helper()
	ch := make(chan applied, 8)
	w, err := watch.New(func(id string, data []byte) error {
		ch <- applied{documentID: id, data: string(data)}
		if fn != nil {
			return fn(id, data)
		}
		return nil
	}, watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, ch
}

func TestWatcher_AppliesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, ch := newWatcher(t, nil)
	require.NoError(t, w.Watch(path, "doc-1"))

	require.NoError(t, os.WriteFile(path, []byte(`{"blocks":[]}`), 0o644))

	select {
	case got := <-ch:
		assert.Equal(t, "doc-1", got.documentID)
		assert.Equal(t, `{"blocks":[]}`, got.data)
	case <-time.After(3 * time.Second):
		t.Fatal("no import after write")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	ch := make(chan applied, 8)
	w, err := watch.New(func(id string, data []byte) error {
		ch <- applied{documentID: id, data: string(data)}
		return nil
	}, watch.WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path, "doc-1"))

	for _, content := range []string{`{"v":1}`, `{"v":2}`, `{"v":3}`} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	select {
	case got := <-ch:
		assert.Equal(t, `{"v":3}`, got.data)
	case <-time.After(3 * time.Second):
		t.Fatal("no import after writes")
	}
	select {
	case got := <-ch:
		t.Fatalf("unexpected second import %q", got.data)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, ch := newWatcher(t, nil)
	require.NoError(t, w.Watch(path, "doc-1"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

	select {
	case got := <-ch:
		t.Fatalf("unexpected import %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Unwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, ch := newWatcher(t, nil)
	require.NoError(t, w.Watch(path, "doc-1"))
	assert.Len(t, w.Paths(), 1)
	w.Unwatch(path)
	assert.Empty(t, w.Paths())

	require.NoError(t, os.WriteFile(path, []byte(`{"blocks":[]}`), 0o644))
	select {
	case got := <-ch:
		t.Fatalf("unexpected import %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}
