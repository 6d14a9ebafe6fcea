package sourcebase

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

// DefaultMarker is the directory whose presence identifies a source base.
const DefaultMarker = "ui"

// ErrNotFound is returned when no source base contains the marker.
var ErrNotFound = errors.New("source base not found")

// Locator finds the source base directory.
type Locator struct {
	Marker string // defaults to DefaultMarker
}

// NewLocator returns a Locator using DefaultMarker.
func NewLocator() *Locator {
	return &Locator{Marker: DefaultMarker}
}

// Locate resolves the source base for start.
func Locate(start string) (string, error) {
	return NewLocator().Locate(start)
}

// Locate returns the git work tree root enclosing start when it holds the
// marker directory, else the nearest ancestor of start that holds it.
func (l *Locator) Locate(start string) (string, error) {
	if start == "" {
		return "", ferrors.ValidationError("source base start directory is empty").Build()
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve start directory").
			WithContext("path", start).
			Build()
	}
	// A file path starts the search from its directory.
	if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	if root, ok := l.gitRoot(abs); ok && l.hasMarker(root) {
		slog.Debug("Source base resolved from git work tree", logfields.Path(root))
		return root, nil
	}

	cur := filepath.Clean(abs)
	for {
		if l.hasMarker(cur) {
			slog.Debug("Source base resolved by marker search", logfields.Path(cur))
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", ferrors.NotFoundError("no source base found").
				WithCause(ErrNotFound).
				WithContext("start", abs).
				WithContext("marker", l.marker()).
				Build()
		}
		cur = parent
	}
}

func (l *Locator) gitRoot(dir string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree to build from.
		return "", false
	}
	return wt.Filesystem.Root(), true
}

func (l *Locator) hasMarker(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, l.marker()))
	return err == nil && info.IsDir()
}

func (l *Locator) marker() string {
	if l.Marker == "" {
		return DefaultMarker
	}
	return l.Marker
}
