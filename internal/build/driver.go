package build

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/uibuild/internal/compiler"
	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/locales"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
	"git.home.luguber.info/inful/uibuild/internal/metrics"
)

// DefaultOutputDir is the output directory, relative to the source base.
const DefaultOutputDir = "dist"

// LocalesSourceDir holds the string tables, relative to the source base.
const LocalesSourceDir = "ui/locales"

// LocalesOutputFile is the generated bundle's name inside the output directory.
const LocalesOutputFile = "locales.js"

var lessFilePattern = regexp.MustCompile(`.*\.less$`)

// Module is one LESS bundle: <base>/<Path>/<Main>.less compiled to <out>/<Main>.css.
type Module struct {
	Path string `yaml:"path"`
	Main string `yaml:"main"`
}

// DefaultModule is the UI controls stylesheet.
var DefaultModule = Module{Path: "ui", Main: "controls"}

func (m Module) String() string { return m.Path + "/" + m.Main }

// Localizer generates the localization bundle.
type Localizer interface {
	Generate(ctx context.Context, force bool) error
}

// StyleCompiler compiles one stylesheet bundle.
type StyleCompiler interface {
	Compile(ctx context.Context, force bool) error
}

// LocalizerFactory builds the Localizer for a run.
type LocalizerFactory func(req Request, sourceDir, output string) Localizer

// StyleCompilerFactory builds the StyleCompiler for one module.
type StyleCompilerFactory func(req Request, mainSource string, sources []string, output string) StyleCompiler

// Request contains the inputs of one build run.
type Request struct {
	BaseDir    string
	OutputDir  string   // relative to BaseDir unless absolute; defaults to DefaultOutputDir
	Locales    []string // defaults to locales.DefaultLocales
	Modules    []Module // defaults to DefaultModule
	Force      bool     // rebuild even when outputs are up to date
	LessBinary string
	NoMinify   bool
}

// State is shared by the stages of one run.
type State struct {
	Request   Request
	OutputDir string
	Report    *Report

	driver   *Driver
	recorder metrics.Recorder
}

// Driver runs build requests.
type Driver struct {
	recorder     metrics.Recorder
	newLocalizer LocalizerFactory
	newStyles    StyleCompilerFactory
	newID        func() string
	now          func() time.Time
}

// NewDriver returns a Driver wired to the real compilers.
func NewDriver() *Driver {
	return &Driver{
		recorder:     metrics.NoopRecorder{},
		newLocalizer: defaultLocalizer,
		newStyles:    defaultStyleCompiler,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// WithRecorder injects a metrics recorder.
func (d *Driver) WithRecorder(r metrics.Recorder) *Driver {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	d.recorder = r
	return d
}

// WithLocalizerFactory replaces the localization generator (used by tests).
func (d *Driver) WithLocalizerFactory(f LocalizerFactory) *Driver {
	d.newLocalizer = f
	return d
}

// WithStyleCompilerFactory replaces the LESS compiler (used by tests).
func (d *Driver) WithStyleCompilerFactory(f StyleCompilerFactory) *Driver {
	d.newStyles = f
	return d
}

func defaultLocalizer(req Request, sourceDir, output string) Localizer {
	return compiler.NewGenerateLocalizations(req.Locales, sourceDir, output)
}

func defaultStyleCompiler(req Request, mainSource string, sources []string, output string) StyleCompiler {
	l := compiler.NewLess(mainSource, sources, output, req.BaseDir)
	l.Minify = !req.NoMinify
	if req.LessBinary != "" {
		if r, ok := l.Runner.(*compiler.ExecRunner); ok {
			r.Binary = req.LessBinary
		}
	}
	return l
}

// Stages returns the pipeline every run executes.
func Stages() []StageDef {
	return NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageGenerateLocalizations, stageGenerateLocalizations).
		Add(StageCompileLess, stageCompileLess).
		Build()
}

// Run executes the pipeline for req. The returned report is never nil; the
// error is non-nil exactly when the report's outcome is not success.
func (d *Driver) Run(ctx context.Context, req Request) (*Report, error) {
	req = withDefaults(req)
	report := newReport(d.newID(), d.now())
	report.BaseDir = req.BaseDir
	report.Locales = append([]string(nil), req.Locales...)
	report.Force = req.Force
	for _, m := range req.Modules {
		report.Modules = append(report.Modules, m.String())
	}

	bs := &State{Request: req, Report: report, driver: d, recorder: d.recorder}
	bs.OutputDir = req.OutputDir
	if !filepath.IsAbs(bs.OutputDir) {
		bs.OutputDir = filepath.Join(req.BaseDir, bs.OutputDir)
	}
	report.OutputDir = bs.OutputDir

	slog.Info("Starting UI build",
		logfields.BuildID(report.BuildID),
		logfields.Path(req.BaseDir),
		logfields.Output(bs.OutputDir),
		slog.Int("locales", len(req.Locales)),
		slog.Int("modules", len(req.Modules)),
		slog.Bool("force", req.Force))

	var err error
	if req.BaseDir == "" {
		err = NewFatalStageError(StagePrepareOutput, ferrors.ConfigError("source base directory is required").Build())
		report.recordStage(StageRecord{Name: StagePrepareOutput, Result: StageResultFatal, Error: err.Error()}, d.recorder)
	} else {
		err = RunStages(ctx, bs, Stages())
	}
	report.finish(err, d.now(), d.recorder)

	if err != nil {
		slog.Error("UI build failed",
			logfields.BuildID(report.BuildID),
			logfields.Stage(string(report.FailedStage)),
			logfields.Outcome(string(report.Outcome)),
			logfields.Duration(report.Duration()))
		return report, err
	}
	slog.Info("UI build completed",
		logfields.BuildID(report.BuildID),
		logfields.Duration(report.Duration()))
	return report, nil
}

func withDefaults(req Request) Request {
	if req.OutputDir == "" {
		req.OutputDir = DefaultOutputDir
	}
	if len(req.Locales) == 0 {
		req.Locales = locales.Defaults()
	}
	if len(req.Modules) == 0 {
		req.Modules = []Module{DefaultModule}
	}
	return req
}
