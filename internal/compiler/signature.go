package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

// settingsSignature hashes the settings that shape an output file, so a
// change of settings invalidates an output whose inputs did not change.
func settingsSignature(settings any) (string, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("marshal build settings: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// signaturePath is the sidecar file recording the settings output was built with.
func signaturePath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".sig")
}

// upToDate reports whether output is newer than every input and was built
// with the settings identified by sig.
func upToDate(output string, inputs []string, sig string) bool {
	if MustBuild(output, inputs) {
		return false
	}
	recorded, err := os.ReadFile(signaturePath(output))
	if err != nil {
		slog.Debug("No settings signature; forcing rebuild", logfields.Output(output))
		return false
	}
	if strings.TrimSpace(string(recorded)) != sig {
		slog.Debug("Build settings changed; forcing rebuild", logfields.Output(output))
		return false
	}
	return true
}

// recordSignature stores sig next to output. A missing signature only costs
// a rebuild on the next run, so failures are logged rather than returned.
func recordSignature(output, sig string) {
	if err := writeFileAtomic(signaturePath(output), []byte(sig+"\n")); err != nil {
		slog.Warn("Failed to record build settings", logfields.Output(output), logfields.Error(err))
	}
}
