package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchInvokesOnReloadAfterFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run:\n  maxIterations: 1\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reloaded := make(chan Config, 1)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	go func() {
		_ = Watch(ctx, path, logger, func(c Config) {
			reloaded <- c
		})
	}()

	// Give the watcher time to register its fsnotify handle before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("run:\n  maxIterations: 9\n"), 0o644))

	select {
	case c := <-reloaded:
		require.Equal(t, 9, c.Run.MaxIterations)
	case <-ctx.Done():
		t.Fatal("timed out waiting for config reload")
	}
}
