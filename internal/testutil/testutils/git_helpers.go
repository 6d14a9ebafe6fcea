package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
)

// SetupSourceTree initializes a git repository in a temp dir and creates the
// given directories inside it. It returns the repository root.
func SetupSourceTree(t *testing.T, dirs ...string) string {
	t.Helper()

	root := t.TempDir()
	if _, err := git.PlainInit(root, false); err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	return root
}
