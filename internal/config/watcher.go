package config

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/graphmind/graphmind/internal/clog"
)

// Watcher hot-reloads a configuration file into a Store whenever it changes
// on disk.
type Watcher struct {
	path    string
	store   *Store
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchFile starts watching path and pushing reloads into store. Callers must
// call Close to stop the background goroutine.
func WatchFile(path string, store *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{path: path, store: store, watcher: fw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	log := clog.For(clog.CategoryConfig)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := w.loadWithRetry()
			if err != nil {
				log.Sugar().Warnw("config reload failed", "path", w.path, "error", err)
				continue
			}
			w.store.Set(cfg)
			log.Sugar().Infow("config hot-reloaded", "path", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Sugar().Warnw("config watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// loadWithRetry reloads the config file, retrying briefly with exponential
// backoff. Editors often fire a Write event before the file is fully
// flushed, so the first read or two can race a half-written file.
func (w *Watcher) loadWithRetry() (*Config, error) {
	var cfg *Config
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 1 * time.Second

	err := backoff.Retry(func() error {
		loaded, err := Load(w.path)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	}, b)
	return cfg, err
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
