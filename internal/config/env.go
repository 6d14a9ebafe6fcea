package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/uibuild/internal/locales"
)

// Environment variables that override the config file.
const (
	EnvLocales  = "UIBUILD_LOCALES"
	EnvLessc    = "UIBUILD_LESSC"
	EnvLogLevel = "UIBUILD_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local from the working directory. Variables
// already set in the process environment are never overwritten.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("file", name))
	}
}

func applyEnv(c *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLocales); ok && strings.TrimSpace(v) != "" {
		c.Locales = locales.ParseList(v)
	}
	if v, ok := lookup(EnvLessc); ok && v != "" {
		c.Less.Binary = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = LogLevel(v)
	}
}
