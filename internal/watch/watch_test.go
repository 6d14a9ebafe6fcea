package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

type buildLog struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
	err   error
}

func newBuildLog() *buildLog { return &buildLog{ch: make(chan struct{}, 16)} }

func (b *buildLog) build(_ context.Context, changed []string) error {
	b.mu.Lock()
	b.calls = append(b.calls, changed)
	b.mu.Unlock()
	b.ch <- struct{}{}
	return b.err
}

func (b *buildLog) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *buildLog) call(i int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[i]
}

func startWatcher(t *testing.T, cfg Config, b *buildLog) {
	t.Helper()
	w, err := New(cfg, b.build)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("watcher did not stop")
		}
	})

	select {
	case <-w.Ready():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for watcher ready")
	}
}

func waitBuild(t *testing.T, b *buildLog) {
	t.Helper()
	select {
	case <-b.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rebuild")
	}
}

func TestWatcher_BurstCoalescesToSingleBuild(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "locales"), 0o750))
	b := newBuildLog()
	startWatcher(t, Config{Root: root, QuietWindow: 50 * time.Millisecond, MaxDelay: time.Second}, b)

	for i := range 5 {
		name := filepath.Join(root, "controls.less")
		if i%2 == 1 {
			name = filepath.Join(root, "locales", "en.json")
		}
		require.NoError(t, os.WriteFile(name, []byte{byte('a' + i)}, 0o600))
		time.Sleep(5 * time.Millisecond)
	}

	waitBuild(t, b)
	select {
	case <-b.ch:
		t.Fatal("expected a single rebuild for the burst")
	case <-time.After(150 * time.Millisecond):
	}
	require.Equal(t, 1, b.count())
	require.Contains(t, b.call(0), filepath.Join(root, "locales", "en.json"))
}

func TestWatcher_FailedBuildKeepsWatching(t *testing.T) {
	root := t.TempDir()
	b := newBuildLog()
	b.err = errors.New("lessc failed")
	startWatcher(t, Config{Root: root, QuietWindow: 20 * time.Millisecond}, b)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.less"), []byte("x"), 0o600))
	waitBuild(t, b)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.less"), []byte("y"), 0o600))
	waitBuild(t, b)
	require.Equal(t, 2, b.count())
}

func TestWatcher_NewDirectoriesAreWatched(t *testing.T) {
	root := t.TempDir()
	b := newBuildLog()
	startWatcher(t, Config{Root: root, QuietWindow: 20 * time.Millisecond}, b)

	sub := filepath.Join(root, "themes")
	require.NoError(t, os.Mkdir(sub, 0o750))
	waitBuild(t, b)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "dark.less"), []byte("x"), 0o600))
	waitBuild(t, b)
}

func TestWatcher_IgnoredPaths(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	require.NoError(t, os.Mkdir(out, 0o750))
	b := newBuildLog()
	startWatcher(t, Config{Root: root, QuietWindow: 20 * time.Millisecond, Ignore: []string{out}}, b)

	require.NoError(t, os.WriteFile(filepath.Join(out, "controls.css"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "controls.less~"), []byte("x"), 0o600))

	select {
	case <-b.ch:
		t.Fatal("ignored paths must not trigger a rebuild")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, func(context.Context, []string) error { return nil })
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = New(Config{Root: t.TempDir()}, nil)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	w, err := New(Config{Root: t.TempDir()}, func(context.Context, []string) error { return nil })
	require.NoError(t, err)
	require.Equal(t, DefaultQuietWindow, w.cfg.QuietWindow)
	require.Equal(t, DefaultMaxDelay, w.cfg.MaxDelay)
}
