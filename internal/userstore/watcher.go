package userstore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

var errNoBackingFile = errors.New("userstore: store has no backing file to watch")

// Watcher hot-reloads a Store's backing credential file on write. Unlike
// the main server configuration, the credential file is not covered by
// the "never mutated after validation" invariant — an operator running
// the user-management CLI against a live file expects the running daemon
// to pick up the change without a restart.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// WatchStore begins watching store's backing file for changes, reloading
// it in place on write. The store must have been created with Load.
func WatchStore(store *Store) (*Watcher, error) {
	if store.path == "" {
		return nil, errNoBackingFile
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(store.path); err != nil {
		w.Close()
		return nil, err
	}

	uw := &Watcher{
		store:   store,
		watcher: w,
		stopCh:  make(chan struct{}),
	}
	go uw.run()
	return uw, nil
}

func (uw *Watcher) run() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-uw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, uw.reload)
			}
		case err, ok := <-uw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("userstore watcher error", "err", err)
		case <-uw.stopCh:
			return
		}
	}
}

func (uw *Watcher) reload() {
	data, err := Load(uw.store.path)
	if err != nil {
		slog.Error("userstore hot-reload failed", "err", err)
		return
	}
	uw.store.snap.Store(data.snap.Load())
	slog.Info("userstore credential file reloaded", "path", uw.store.path)
}

// Stop stops the watcher.
func (uw *Watcher) Stop() error {
	close(uw.stopCh)
	return uw.watcher.Close()
}
