package bridge

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lydakis/hostbridge/internal/config"
)

// watchConfig hot-reloads the safe-to-swap settings (cache TTLs) when
// the config file changes on disk. Endpoint and heartbeat changes need
// a daemon restart and are only logged. The directory is watched, not
// the file: editors replace config files by rename.
func (b *Bridge) watchConfig(path string) (stop func()) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		b.log.Warn("config watcher unavailable", zap.Error(err))
		return func() {}
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		b.log.Warn("config watcher unavailable", zap.Error(err))
		w.Close()
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				b.reloadConfig(path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				b.log.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return func() {
		w.Close()
		<-done
	}
}

func (b *Bridge) reloadConfig(path string) {
	fresh, err := config.LoadFrom(path)
	if err != nil {
		b.log.Warn("config reload failed", zap.Error(err))
		return
	}
	if err := config.Validate(fresh); err != nil {
		b.log.Warn("config reload rejected", zap.Error(err))
		return
	}

	b.mu.Lock()
	restartNeeded := fresh.Endpoint != b.cfg.Endpoint ||
		fresh.Heartbeat != b.cfg.Heartbeat ||
		fresh.Reconnect != b.cfg.Reconnect
	b.cfg.Cache = fresh.Cache
	b.mu.Unlock()

	b.log.Info("config reloaded", zap.Int("cache_rules", len(fresh.Cache)))
	if restartNeeded {
		b.log.Warn("endpoint or session settings changed, restart to apply")
	}
}
