package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/uibuild/internal/build"
	"git.home.luguber.info/inful/uibuild/internal/history"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
	"git.home.luguber.info/inful/uibuild/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject(g, b.Base)
	if err != nil {
		return err
	}
	req, err := b.request(p)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, err = newRunner(g, root, p).run(ctx, req)
	return err
}

// runner executes builds and handles what happens around them: history and
// the metrics textfile. Neither can change a build's result.
type runner struct {
	g        *Global
	project  *project
	driver   *build.Driver
	recorder *metrics.PrometheusRecorder
	textfile string
}

func newRunner(g *Global, root *CLI, p *project) *runner {
	r := &runner{g: g, project: p, driver: build.NewDriver()}
	r.textfile = root.MetricsTextfile
	if r.textfile == "" {
		r.textfile = p.Config.MetricsTextfile(p.Base)
	}
	if r.textfile != "" {
		r.recorder = metrics.NewPrometheusRecorder(nil)
		r.driver.WithRecorder(r.recorder)
	}
	return r
}

func (r *runner) run(ctx context.Context, req build.Request) (*build.Report, error) {
	report, err := r.driver.Run(ctx, req)

	r.recordHistory(report)
	r.writeMetrics()

	if err != nil {
		_, _ = fmt.Fprintf(r.g.Stdout, "Build %s failed at %s after %s\n",
			report.BuildID, report.FailedStage, report.Duration().Round(time.Millisecond))
		return report, err
	}
	_, _ = fmt.Fprintf(r.g.Stdout, "Build %s succeeded in %s\n", report.BuildID, report.Duration().Round(time.Millisecond))
	return report, nil
}

func (r *runner) recordHistory(report *build.Report) {
	path := r.project.Config.HistoryPath(r.project.Base)
	if path == "" {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("Build history unavailable", logfields.Path(path), logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	// The build context may already be canceled; history is still written.
	if err := store.Append(context.Background(), report); err != nil {
		slog.Warn("Failed to record build history", logfields.BuildID(report.BuildID), logfields.Error(err))
	}
}

func (r *runner) writeMetrics() {
	if r.recorder == nil {
		return
	}
	if err := metrics.WriteTextfile(r.textfile, r.recorder.Registry()); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(r.textfile), logfields.Error(err))
	}
}
