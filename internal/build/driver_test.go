package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/uibuild/internal/compiler"
	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/locales"
	"git.home.luguber.info/inful/uibuild/internal/metrics"
	helpers "git.home.luguber.info/inful/uibuild/internal/testutil/testutils"
)

type fakeStep struct {
	err    error
	calls  int
	forced bool
}

func (f *fakeStep) Generate(_ context.Context, force bool) error {
	f.calls++
	f.forced = force
	return f.err
}

func (f *fakeStep) Compile(_ context.Context, force bool) error {
	f.calls++
	f.forced = force
	return f.err
}

type styleCall struct {
	main    string
	sources []string
	output  string
}

type harness struct {
	loc    *fakeStep
	style  *fakeStep
	styles []styleCall
	locDir string
	locOut string
	locReq Request
}

func newHarness() *harness {
	return &harness{loc: &fakeStep{}, style: &fakeStep{}}
}

func (h *harness) driver() *Driver {
	return NewDriver().
		WithLocalizerFactory(func(req Request, sourceDir, output string) Localizer {
			h.locDir, h.locOut, h.locReq = sourceDir, output, req
			return h.loc
		}).
		WithStyleCompilerFactory(func(_ Request, mainSource string, sources []string, output string) StyleCompiler {
			h.styles = append(h.styles, styleCall{main: mainSource, sources: sources, output: output})
			return h.style
		})
}

func sourceTree(t *testing.T) string {
	t.Helper()
	base := helpers.SetupSourceTree(t, "ui/locales", "ui/controls")
	fa := helpers.NewFileAssertions(t, base)
	now := time.Now()
	fa.Touch("ui/controls.less", "@import 'controls/buttons';", now)
	fa.Touch("ui/controls/buttons.less", ".button { color: red; }", now)
	fa.Touch("ui/README.md", "not a stylesheet", now)
	return base
}

func TestRun_BothStepsSucceed(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()

	report, err := h.driver().Run(context.Background(), Request{BaseDir: base})
	require.NoError(t, err)
	require.Equal(t, ferrors.ExitSuccess, report.ExitCode())
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.NotEmpty(t, report.BuildID)

	require.Equal(t, 1, h.loc.calls)
	require.Equal(t, 1, h.style.calls)
	require.Equal(t, locales.Defaults(), h.locReq.Locales)
	require.Equal(t, filepath.Join(base, "ui", "locales"), h.locDir)
	require.Equal(t, filepath.Join(base, "dist", "locales.js"), h.locOut)

	require.Len(t, h.styles, 1)
	require.Equal(t, filepath.Join(base, "ui", "controls.less"), h.styles[0].main)
	require.Equal(t, filepath.Join(base, "dist", "controls.css"), h.styles[0].output)
	require.Equal(t, []string{
		filepath.Join(base, "ui", "controls.less"),
		filepath.Join(base, "ui", "controls", "buttons.less"),
	}, h.styles[0].sources)

	helpers.NewFileAssertions(t, base).AssertDirExists("dist")
	for _, name := range []StageName{StagePrepareOutput, StageGenerateLocalizations, StageCompileLess} {
		rec, ok := report.Stage(name)
		require.True(t, ok, name)
		require.Equal(t, StageResultSuccess, rec.Result, name)
	}
}

func TestRun_PreExistingDistIsNotAnError(t *testing.T) {
	base := sourceTree(t)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "dist"), 0o750))
	h := newHarness()

	report, err := h.driver().Run(context.Background(), Request{BaseDir: base})
	require.NoError(t, err)
	require.Equal(t, 0, report.ExitCode())
}

func TestRun_LocalizationFailureSkipsLess(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()
	h.loc.err = ferrors.LocalizationError("missing locale file").Build()

	report, err := h.driver().Run(context.Background(), Request{BaseDir: base})
	require.Error(t, err)
	require.Equal(t, 1, report.ExitCode())
	require.Equal(t, OutcomeFailed, report.Outcome)
	require.Equal(t, StageGenerateLocalizations, report.FailedStage)

	require.Equal(t, 0, h.style.calls, "LESS must not be attempted")
	require.Empty(t, h.styles)
	rec, ok := report.Stage(StageCompileLess)
	require.True(t, ok)
	require.Equal(t, StageResultSkipped, rec.Result)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorFatal, se.Kind)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryLocalization))
	require.Equal(t, ferrors.ExitFailure, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestRun_LessFailureFails(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()
	h.style.err = ferrors.StylesheetError("lessc exited with status 1").Build()

	report, err := h.driver().Run(context.Background(), Request{BaseDir: base})
	require.Error(t, err)
	require.Equal(t, 1, report.ExitCode())
	require.Equal(t, StageCompileLess, report.FailedStage)
	require.Equal(t, 1, h.loc.calls)
	require.Equal(t, 1, h.style.calls)
}

func TestRun_OutputPathIsAFile(t *testing.T) {
	base := sourceTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(base, "dist"), []byte("x"), 0o600))
	h := newHarness()

	report, err := h.driver().Run(context.Background(), Request{BaseDir: base})
	require.Error(t, err)
	require.Equal(t, StagePrepareOutput, report.FailedStage)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	require.Equal(t, 0, h.loc.calls)
}

func TestRun_MissingBaseDir(t *testing.T) {
	report, err := newHarness().driver().Run(context.Background(), Request{})
	require.Error(t, err)
	require.Equal(t, 1, report.ExitCode())
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestRun_Canceled(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := h.driver().Run(ctx, Request{BaseDir: base})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryCanceled))
	require.Equal(t, OutcomeCanceled, report.Outcome)
	require.Equal(t, 1, report.ExitCode())
	require.Len(t, report.Stages, 3)
	require.Equal(t, StageResultCanceled, report.Stages[0].Result)
	require.Equal(t, StageResultSkipped, report.Stages[2].Result)
}

func TestRun_StepCanceledMidway(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()
	h.loc.err = fmt.Errorf("load catalog: %w", context.Canceled)

	report, err := h.driver().Run(context.Background(), Request{BaseDir: base})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryCanceled))
	require.Equal(t, OutcomeCanceled, report.Outcome)
	require.Equal(t, StageGenerateLocalizations, report.FailedStage)
	require.Equal(t, 0, h.style.calls)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	stage, _ := ce.Context().GetString("stage")
	require.Equal(t, string(StageGenerateLocalizations), stage)
}

func TestRun_ForceAndModules(t *testing.T) {
	base := sourceTree(t)
	helpers.NewFileAssertions(t, base).Touch("ui/player.less", ".player {}", time.Now())
	h := newHarness()

	_, err := h.driver().Run(context.Background(), Request{
		BaseDir: base,
		Force:   true,
		Modules: []Module{DefaultModule, {Path: "ui", Main: "player"}},
	})
	require.NoError(t, err)
	require.True(t, h.loc.forced)
	require.True(t, h.style.forced)
	require.Len(t, h.styles, 2)
	require.Equal(t, filepath.Join(base, "dist", "player.css"), h.styles[1].output)
}

func TestRun_ModuleWithoutSourcesFails(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()

	report, err := h.driver().Run(context.Background(), Request{
		BaseDir: base,
		Modules: []Module{{Path: "styles", Main: "main"}},
	})
	require.Error(t, err)
	require.Equal(t, StageCompileLess, report.FailedStage)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryStylesheet))
}

type recordingRecorder struct {
	mu       sync.Mutex
	results  map[string]metrics.ResultLabel
	outcomes []string
	last     time.Time
}

func (r *recordingRecorder) ObserveStageDuration(string, time.Duration) {}
func (r *recordingRecorder) ObserveBuildDuration(time.Duration)         {}
func (r *recordingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string]metrics.ResultLabel{}
	}
	r.results[stage] = result
}
func (r *recordingRecorder) IncBuildOutcome(outcome string) { r.outcomes = append(r.outcomes, outcome) }
func (r *recordingRecorder) SetLastBuildTimestamp(t time.Time) { r.last = t }

func TestRun_RecordsMetrics(t *testing.T) {
	base := sourceTree(t)
	h := newHarness()
	h.loc.err = errors.New("boom")
	rec := &recordingRecorder{}

	_, err := h.driver().WithRecorder(rec).Run(context.Background(), Request{BaseDir: base})
	require.Error(t, err)
	require.Equal(t, metrics.ResultSuccess, rec.results[string(StagePrepareOutput)])
	require.Equal(t, metrics.ResultFatal, rec.results[string(StageGenerateLocalizations)])
	require.Equal(t, metrics.ResultSkipped, rec.results[string(StageCompileLess)])
	require.Equal(t, []string{"failed"}, rec.outcomes)
	require.False(t, rec.last.IsZero())
}

type cssRunner struct{}

func (cssRunner) Run(context.Context, string) ([]byte, error) {
	return []byte(".button {\n  color: red;\n}\n"), nil
}

func TestRun_EndToEndWithRealGenerators(t *testing.T) {
	base := sourceTree(t)
	fa := helpers.NewFileAssertions(t, base)
	now := time.Now()
	fa.Touch("ui/locales/source.json", `{"PLAY": {"description": "Play button", "message": "Play"}}`, now)
	fa.Touch("ui/locales/en.json", `{"PLAY": "Play"}`, now)
	fa.Touch("ui/locales/de.json", `{"PLAY": "Wiedergabe"}`, now)

	d := NewDriver().WithStyleCompilerFactory(func(req Request, mainSource string, sources []string, output string) StyleCompiler {
		l := compiler.NewLess(mainSource, sources, output, req.BaseDir)
		l.Runner = cssRunner{}
		return l
	})

	report, err := d.Run(context.Background(), Request{BaseDir: base, Locales: []string{"en", "de"}})
	require.NoError(t, err)
	require.Equal(t, 0, report.ExitCode())

	fa.AssertFileContains("dist/locales.js", `"Wiedergabe"`).
		AssertFileExists("dist/controls.css").
		AssertFileContains("dist/controls.css", "color")

	// A second, non-forced run leaves fresh outputs alone and still succeeds.
	report, err = d.Run(context.Background(), Request{BaseDir: base, Locales: []string{"en", "de"}})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
}

func TestEnsureOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, EnsureOutputDir(dir))
	require.NoError(t, EnsureOutputDir(dir), "existing directory is fine")

	fileParent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(fileParent, nil, 0o600))
	err := EnsureOutputDir(filepath.Join(fileParent, "dist"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem), "parent is a file")

	fileInPlace := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.WriteFile(fileInPlace, nil, 0o600))
	err = EnsureOutputDir(fileInPlace)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem), "dist is a file")

	root := t.TempDir()
	err = EnsureOutputDir(filepath.Join(root, "no", "such", "parent", "dist"))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem), "missing parent")
	_, statErr := os.Stat(filepath.Join(root, "no"))
	require.True(t, os.IsNotExist(statErr), "parents are never created")
}
