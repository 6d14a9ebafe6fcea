package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
	"git.home.luguber.info/inful/uibuild/internal/sourcebase"
)

func stageCompileLess(ctx context.Context, bs *State) error {
	for _, m := range bs.Request.Modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := compileModule(ctx, bs, m); err != nil {
			return fmt.Errorf("module %s: %w", m, err)
		}
	}
	return nil
}

func compileModule(ctx context.Context, bs *State, m Module) error {
	req := bs.Request
	moduleDir := filepath.Join(req.BaseDir, filepath.FromSlash(m.Path))
	mainSource := filepath.Join(moduleDir, m.Main+".less")
	output := filepath.Join(bs.OutputDir, m.Main+".css")

	sources, err := sourcebase.AllFiles(moduleDir, lessFilePattern)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStylesheet, "list stylesheet sources").
			Fatal().
			WithContext("module", m.String()).
			Build()
	}
	slog.Debug("Stylesheet sources", logfields.Module(m.String()), logfields.Count(len(sources)))

	return bs.driver.newStyles(req, mainSource, sources, output).Compile(ctx, req.Force)
}
