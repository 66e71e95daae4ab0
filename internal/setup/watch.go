package setup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchDebounce batches the burst of events editors produce on save.
var watchDebounce = 300 * time.Millisecond

// Watch calls rebuild every time the file at path changes, until ctx is
// cancelled. The parent directory is watched so editors that replace the file
// on save keep being tracked. Rebuild errors are logged and watching goes on.
func Watch(ctx context.Context, path string, logger zerolog.Logger, rebuild func() error) error {
	logger = logger.With().Str("component", "watch").Logger()

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	target = filepath.Clean(target)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info().Str("path", target).Msg("watching cluster description")

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug().Str("op", event.Op.String()).Msg("change detected")
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")

		case <-timer.C:
			start := time.Now()
			if err := rebuild(); err != nil {
				logger.Error().Err(err).Msg("rebuild failed")
				continue
			}
			logger.Info().Dur("duration", time.Since(start)).Msg("rebuilt cluster")
		}
	}
}
