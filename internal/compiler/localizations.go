package compiler

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/locales"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

// GenerateLocalizations renders the locale tables found in SourceDir into
// the JavaScript bundle at Output.
type GenerateLocalizations struct {
	Locales   []string // raw tags; canonicalized on Generate
	SourceDir string   // e.g. <base>/ui/locales
	Output    string   // e.g. <base>/dist/locales.js
}

// NewGenerateLocalizations returns a generator for the given locale list.
func NewGenerateLocalizations(localeList []string, sourceDir, output string) *GenerateLocalizations {
	return &GenerateLocalizations{
		Locales:   localeList,
		SourceDir: sourceDir,
		Output:    output,
	}
}

// Generate writes Output unless it is already up to date and force is false.
func (g *GenerateLocalizations) Generate(ctx context.Context, force bool) error {
	tags, err := locales.Normalize(g.Locales)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryLocalization, "invalid locale list").
			Fatal().
			Build()
	}

	sig, err := settingsSignature(struct {
		Locales []string `json:"locales"`
	}{tags})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "localization settings").Build()
	}

	if !force && upToDate(g.Output, locales.Inputs(g.SourceDir, tags), sig) {
		slog.Info("Localizations up to date; skipping", logfields.Output(g.Output))
		return nil
	}

	slog.Info("Generating localizations",
		logfields.Path(g.SourceDir),
		logfields.Output(g.Output),
		logfields.Count(len(tags)))
	t0 := time.Now()

	cat, err := locales.LoadCatalog(ctx, g.SourceDir, tags)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := locales.Render(&buf, cat); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryLocalization, "render localizations").
			Fatal().
			Build()
	}
	if err := writeFileAtomic(g.Output, buf.Bytes()); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write localizations").
			Fatal().
			WithContext("output", g.Output).
			Build()
	}
	recordSignature(g.Output, sig)

	slog.Info("Localizations generated",
		logfields.Output(g.Output),
		slog.Int("messages", len(cat.IDs)),
		logfields.Duration(time.Since(t0)))
	return nil
}
