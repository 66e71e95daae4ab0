package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortDebounce(t *testing.T) {
	t.Helper()
	prev := watchDebounce
	watchDebounce = 20 * time.Millisecond
	t.Cleanup(func() { watchDebounce = prev })
}

func startWatch(t *testing.T, path string, rebuild func() error) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		done <- Watch(ctx, path, zerolog.Nop(), rebuild)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return cancel, done
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	shortDebounce(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("shards: []\n"), 0o644))

	var calls atomic.Int32
	cancel, done := startWatch(t, path, func() error {
		calls.Add(1)
		return nil
	})

	// Writes to other files in the directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("shards: []\n# edit\n"), 0o644)
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_KeepsGoingAfterRebuildError(t *testing.T) {
	shortDebounce(t)
	path := filepath.Join(t.TempDir(), "cluster.yml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	var calls atomic.Int32
	startWatch(t, path, func() error {
		calls.Add(1)
		return errors.New("broken manifest")
	})

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("a: 2\n"), 0o644)
		return calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "cluster.yml"), zerolog.Nop(), func() error { return nil })
	assert.Error(t, err)
}
