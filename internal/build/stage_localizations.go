package build

import (
	"context"
	"path/filepath"
)

func stageGenerateLocalizations(ctx context.Context, bs *State) error {
	req := bs.Request
	sourceDir := filepath.Join(req.BaseDir, filepath.FromSlash(LocalesSourceDir))
	output := filepath.Join(bs.OutputDir, LocalesOutputFile)
	return bs.driver.newLocalizer(req, sourceDir, output).Generate(ctx, req.Force)
}
