package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
)

// ErrLesscNotFound is returned when no lessc executable can be resolved.
var ErrLesscNotFound = errors.New("lessc executable not found")

// Runner compiles a LESS entry point and returns the resulting CSS.
type Runner interface {
	Run(ctx context.Context, mainSource string) ([]byte, error)
}

// ExecRunner runs the lessc command line compiler.
type ExecRunner struct {
	// Binary is an explicit lessc path. When empty, the node_modules copy
	// under BaseDir is preferred over $PATH.
	Binary  string
	BaseDir string
	// IncludePaths are passed to lessc for @import resolution.
	IncludePaths []string
}

// Resolve returns the lessc executable the runner will invoke.
func (r *ExecRunner) Resolve() (string, error) {
	if r.Binary != "" {
		return exec.LookPath(r.Binary)
	}
	if r.BaseDir != "" {
		local := filepath.Join(r.BaseDir, "node_modules", ".bin", "lessc")
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			return local, nil
		}
	}
	path, err := exec.LookPath("lessc")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLesscNotFound, err)
	}
	return path, nil
}

// Run executes lessc with its CSS written to stdout.
func (r *ExecRunner) Run(ctx context.Context, mainSource string) ([]byte, error) {
	bin, err := r.Resolve()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryToolchain, "resolve lessc").
			Fatal().
			WithContext("binary", r.Binary).
			Build()
	}

	args := []string{"--no-color"}
	if len(r.IncludePaths) > 0 {
		args = append(args, "--include-path="+strings.Join(r.IncludePaths, string(os.PathListSeparator)))
	}
	args = append(args, mainSource)

	// #nosec G204 - binary comes from config or a fixed lookup
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking lessc", "binary", bin, "args", args)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		b := ferrors.WrapError(err, ferrors.CategoryStylesheet, "lessc failed").
			Fatal().
			WithContext("source", mainSource)
		if output != "" {
			b = b.WithContext("output", output)
		}
		return nil, b.Build()
	}

	if errStr := strings.TrimSpace(stderr.String()); errStr != "" {
		slog.Warn("lessc stderr", "error_output", errStr)
	}
	return stdout.Bytes(), nil
}
