package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/randalmurphal/flowlens/pkg/flowlens/event"
)

// DefaultDebounce coalesces the burst of events an editor produces for
// one save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher publishes flows.changed when the flows file is written,
// created, renamed or removed.
//
// The parent directory is watched rather than the file itself: editors
// and Node-RED replace the file on save, which drops a watch placed on
// the old inode.
type Watcher struct {
	path     string
	bus      event.Bus
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a change is published.
// Default: 200ms
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for the flows file at path.
func NewWatcher(path string, bus event.Bus, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		bus:      bus,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. It returns ctx.Err() on shutdown or
// the error that prevented the watch from starting.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching flows file", slog.String("path", w.path))

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending fsnotify.Op
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending |= ev.Op
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.publish(ctx, pending)
			pending = 0

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("flows watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

func (w *Watcher) publish(ctx context.Context, op fsnotify.Op) {
	evt := event.New(event.TypeFlowsChanged, "watcher", event.FlowsChanged{
		Path: w.path,
		Op:   op.String(),
	})
	if err := w.bus.Publish(ctx, evt); err != nil && ctx.Err() == nil {
		w.logger.Warn("publish flows change failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()),
		)
	}
}
