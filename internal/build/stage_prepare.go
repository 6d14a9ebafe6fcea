package build

import (
	"context"
	"errors"
	"io/fs"
	"os"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

func stagePrepareOutput(_ context.Context, bs *State) error {
	return EnsureOutputDir(bs.OutputDir)
}

// EnsureOutputDir creates dir but not its parents. A directory that already
// exists is fine; a file in its place, a missing parent or any other creation
// failure is reported.
func EnsureOutputDir(dir string) error {
	err := os.Mkdir(dir, 0o755)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat output directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	if !info.IsDir() {
		return ferrors.FileSystemError("output path exists and is not a directory").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	return nil
}
