package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/uibuild/internal/build"
	"git.home.luguber.info/inful/uibuild/internal/sourcebase"
	"git.home.luguber.info/inful/uibuild/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`
	Debounce   time.Duration `name:"debounce" help:"Quiet period before a rebuild" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject(g, w.Base)
	if err != nil {
		return err
	}
	req, err := w.request(p)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return w.watch(ctx, newRunner(g, root, p), req)
}

func (w *WatchCmd) watch(ctx context.Context, r *runner, req build.Request) error {
	// The first build may fail; watching starts regardless.
	_, _ = r.run(ctx, req)

	// Only the first build honours --force.
	rebuild := req
	rebuild.Force = false

	watcher, err := watch.New(watch.Config{
		Root:        filepath.Join(req.BaseDir, sourcebase.DefaultMarker),
		QuietWindow: w.Debounce,
		Ignore:      []string{r.project.Config.ResolveOutputDir(req.BaseDir)},
	}, func(ctx context.Context, _ []string) error {
		_, err := r.run(ctx, rebuild)
		return err
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
