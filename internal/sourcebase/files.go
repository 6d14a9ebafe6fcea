package sourcebase

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

// AllFiles recursively lists the regular files under dir whose path matches
// match, sorted lexically. A nil match selects every file.
func AllFiles(dir string, match *regexp.Regexp) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if match == nil || match.MatchString(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "list source files").
			WithContext("dir", dir).
			Build()
	}

	sort.Strings(files)
	return files, nil
}
