package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watchFile(t *testing.T, path string) (<-chan string, *Watcher, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 8)
	w, err := Watch(ctx, path, func(data []byte) { changes <- string(data) }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return changes, w, cancel
}

func TestWatchReportsExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moderators.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	changes, _, _ := watchFile(t, path)

	require.NoError(t, os.WriteFile(path, []byte(`["alice"]`), 0o644))

	select {
	case got := <-changes:
		assert.Equal(t, `["alice"]`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatchSkipsRememberedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	changes, w, _ := watchFile(t, path)

	own := []byte(`[{"name":"hi"}]`)
	w.Remember(own)
	require.NoError(t, os.WriteFile(path, own, 0o644))

	select {
	case got := <-changes:
		t.Fatalf("own write reported as change: %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	changes, _, _ := watchFile(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`x`), 0o644))

	select {
	case got := <-changes:
		t.Fatalf("unexpected change %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	_, w, cancel := watchFile(t, path)
	cancel()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "a.json"), func([]byte) {})
	assert.Error(t, err)
}
