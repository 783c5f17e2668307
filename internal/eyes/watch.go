package eyes

import (
	"context"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// WatchCatalog loads path into store once, then watches it for writes and
// reloads on change, calling r.Reindex so phase membership changes take
// effect immediately. If path is empty, the embedded default catalog is
// used and no file watch is started. Runs until ctx is cancelled.
func WatchCatalog(ctx context.Context, path string, store *CapabilityStore, r *Registry, log *slog.Logger) error {
	if path == "" {
		return nil
	}

	if err := reloadCatalogFile(path, store, r, log); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := reloadCatalogFile(path, store, r, log); err != nil {
					log.Warn("eye catalog reload failed, keeping previous catalog", "path", path, "error", err)
				} else {
					log.Info("eye catalog reloaded", "path", path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("eye catalog watcher error", "error", err)
			}
		}
	}()

	return nil
}

func reloadCatalogFile(path string, store *CapabilityStore, r *Registry, log *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	caps, err := ParseCatalog(data)
	if err != nil {
		return err
	}
	store.Set(caps)
	r.Reindex()
	return nil
}
