package keys

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever .pem files in dir change. Bursts of events
// (a key pair is usually two files) are coalesced by debounce. It blocks until
// ctx is done.
func (s *Store) Watch(ctx context.Context, dir string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("keys: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("keys: watch %s: %w", dir, err)
	}

	logger.Info("watching key directory", map[string]any{"dir": dir})

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(filepath.Base(event.Name), ".pem") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			// Reload logs its own failures and keeps the old snapshot.
			_ = s.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("key watcher error", map[string]any{"error": err.Error()})
		}
	}
}
