package compiler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

// Less compiles one LESS entry point into a CSS file.
type Less struct {
	MainSource string   // entry point, e.g. <base>/ui/controls.less
	Sources    []string // every stylesheet the entry point may import
	Output     string   // e.g. <base>/dist/controls.css
	Minify     bool
	Runner     Runner
}

// NewLess returns a Less compiler that minifies and runs lessc from baseDir.
func NewLess(mainSource string, sources []string, output, baseDir string) *Less {
	return &Less{
		MainSource: mainSource,
		Sources:    sources,
		Output:     output,
		Minify:     true,
		Runner: &ExecRunner{
			BaseDir:      baseDir,
			IncludePaths: []string{filepath.Dir(mainSource)},
		},
	}
}

// Compile builds Output unless it is already up to date and force is false.
func (l *Less) Compile(ctx context.Context, force bool) error {
	sig, err := settingsSignature(struct {
		MainSource string `json:"main_source"`
		Minify     bool   `json:"minify"`
	}{l.MainSource, l.Minify})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "stylesheet settings").Build()
	}

	if !force && upToDate(l.Output, l.inputs(), sig) {
		slog.Info("Stylesheet up to date; skipping", logfields.Output(l.Output))
		return nil
	}

	if info, err := os.Stat(l.MainSource); err != nil || info.IsDir() {
		b := ferrors.StylesheetError("main stylesheet not found").WithContext("source", l.MainSource)
		if err != nil {
			b = b.WithCause(err)
		}
		return b.Build()
	}
	if l.Runner == nil {
		return ferrors.InternalError("no lessc runner configured").Build()
	}

	slog.Info("Compiling stylesheet",
		logfields.Path(l.MainSource),
		logfields.Output(l.Output),
		logfields.Count(len(l.Sources)))
	t0 := time.Now()

	css, err := l.Runner.Run(ctx, l.MainSource)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if ferrors.IsClassified(err) {
			return err
		}
		return ferrors.WrapError(err, ferrors.CategoryStylesheet, "compile stylesheet").
			Fatal().
			WithContext("source", l.MainSource).
			Build()
	}

	if l.Minify {
		if css, err = MinifyCSS(css, l.MainSource); err != nil {
			return err
		}
	}

	if err := writeFileAtomic(l.Output, css); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write stylesheet").
			Fatal().
			WithContext("output", l.Output).
			Build()
	}
	recordSignature(l.Output, sig)

	slog.Info("Stylesheet compiled",
		logfields.Output(l.Output),
		slog.Int("bytes", len(css)),
		logfields.Duration(time.Since(t0)))
	return nil
}

// inputs always includes the entry point, even if Sources omits it.
func (l *Less) inputs() []string {
	for _, s := range l.Sources {
		if s == l.MainSource {
			return l.Sources
		}
	}
	return append([]string{l.MainSource}, l.Sources...)
}
