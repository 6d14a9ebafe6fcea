package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	if Version == "" || BuildTime == "" || GitCommit == "" {
		t.Fatal("build metadata must never be empty")
	}
	if got := String(); !strings.HasPrefix(got, "uibuild "+Version) {
		t.Errorf("String() = %q", got)
	}
}
