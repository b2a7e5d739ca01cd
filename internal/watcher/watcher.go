// Package watcher notices edits made to the fs backend by other processes.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/nuage/internal/checksum"
	"github.com/starford/nuage/internal/kv"
)

// Callback is called once per settled outside change to key. data is nil when
// the key was removed.
type Callback func(ctx context.Context, key string, data []byte)

// Watcher watches the data directory of an fs backend.
type Watcher struct {
	fs       *kv.FS
	tracker  *checksum.Tracker
	logger   *slog.Logger
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a key must be quiet before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New returns a watcher on store. Writes recorded in tracker are treated as
// this process's own and not reported.
func New(store *kv.FS, tracker *checksum.Tracker, opts ...Option) *Watcher {
	w := &Watcher{fs: store, tracker: tracker, logger: slog.Default(), debounce: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, cb Callback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.fs.Root()); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.fs.Root()))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			for key := range pending {
				w.settle(ctx, key, cb)
			}
			clear(pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := w.fs.KeyFor(ev.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			timer.Reset(w.debounce)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) settle(ctx context.Context, key string, cb Callback) {
	data, err := w.fs.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrKeyNotFound):
		if !w.tracker.Observe(key, nil) {
			return
		}
		w.logger.Debug("watcher: removed", slog.String("key", key))
		cb(ctx, key, nil)
	case err != nil:
		w.logger.Warn("watcher: read failed", slog.String("key", key), slog.String("error", err.Error()))
	default:
		if !w.tracker.Observe(key, data) {
			return
		}
		w.logger.Debug("watcher: changed", slog.String("key", key))
		cb(ctx, key, data)
	}
}
