package version

import "fmt"

// Version is the release version, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/uibuild/internal/version.Version=v1.2.0".
var Version = "unknown"

// Build metadata, set the same way as Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("uibuild %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
