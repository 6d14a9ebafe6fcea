// Package watch rebuilds the UI bundles when files under the source tree change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

const (
	DefaultQuietWindow = 300 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
)

// BuildFunc runs one rebuild. Its error is logged and watching continues.
type BuildFunc func(ctx context.Context, changed []string) error

// Config configures a Watcher.
type Config struct {
	Root        string        // directory watched recursively, e.g. <base>/ui
	QuietWindow time.Duration // rebuild once events stop for this long
	MaxDelay    time.Duration // upper bound on how long a burst can postpone a rebuild
	Ignore      []string      // directories whose events are dropped, e.g. the output directory
}

// Watcher coalesces bursts of filesystem events into single rebuilds.
// Rebuilds never overlap; changes seen during a rebuild cause exactly one
// follow-up.
type Watcher struct {
	cfg   Config
	build BuildFunc

	readyOnce sync.Once
	ready     chan struct{}

	pending map[string]struct{}
}

// New validates cfg and returns a Watcher.
func New(cfg Config, build BuildFunc) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, ferrors.ValidationError("watch root is required").Build()
	}
	if build == nil {
		return nil, ferrors.ValidationError("build func is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = DefaultQuietWindow
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve watch root").Build()
	}
	cfg.Root = root
	for i, dir := range cfg.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			cfg.Ignore[i] = abs
		}
	}

	return &Watcher{
		cfg:     cfg,
		build:   build,
		ready:   make(chan struct{}),
		pending: make(map[string]struct{}),
	}, nil
}

// Ready is closed once Run has registered its watches.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is canceled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	defer func() { _ = fw.Close() }()

	if err := w.addTree(fw, w.cfg.Root); err != nil {
		return err
	}
	slog.Info("Watching for changes", logfields.Path(w.cfg.Root), slog.Duration("quiet_window", w.cfg.QuietWindow))
	w.readyOnce.Do(func() { close(w.ready) })

	quietTimer := stoppedTimer()
	maxTimer := stoppedTimer()
	var quietC, maxC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(fw, ev) {
				continue
			}
			resetTimer(quietTimer, w.cfg.QuietWindow)
			quietC = quietTimer.C
			if maxC == nil {
				resetTimer(maxTimer, w.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))

		case <-quietC:
			quietC, maxC = nil, nil
			stopTimer(maxTimer)
			w.rebuild(ctx, "quiet")

		case <-maxC:
			quietC, maxC = nil, nil
			stopTimer(quietTimer)
			w.rebuild(ctx, "max_delay")
		}
	}
}

// handleEvent records a relevant change and reports whether it counts.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		// New directories are not covered by the existing watches.
		if err := w.addTree(fw, ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
		}
	}
	slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.pending[ev.Name] = struct{}{}
	return true
}

func (w *Watcher) rebuild(ctx context.Context, reason string) {
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)

	slog.Info("Rebuilding", slog.String("reason", reason), logfields.Count(len(changed)))
	if err := w.build(ctx, changed); err != nil {
		slog.Error("Rebuild failed; still watching", logfields.Error(err))
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.cfg.Root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "watch directory").
				WithContext("path", path).
				Build()
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") {
		return true
	}
	for _, dir := range w.cfg.Ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}
