package compiler

import (
	"log/slog"
	"os"
)

// MustBuild reports whether output has to be regenerated from inputs: it is
// missing, or an input is newer than it or cannot be stat'ed.
func MustBuild(output string, inputs []string) bool {
	out, err := os.Stat(output)
	if err != nil {
		return true
	}
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			slog.Debug("Cannot stat input; forcing rebuild", "input", in, "error", err)
			return true
		}
		if info.ModTime().After(out.ModTime()) {
			return true
		}
	}
	return false
}
