// Package config loads uibuild.yaml, applies .env files, environment
// overrides and defaults, and validates the result.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/locales"
)

// FileName is the config file looked up at the source base.
const FileName = "uibuild.yaml"

// HistoryOff disables the build history store.
const HistoryOff = "off"

// DefaultHistoryFile is the history database name inside the output directory.
const DefaultHistoryFile = ".uibuild-history.db"

// Config represents the uibuild configuration.
type Config struct {
	BaseDir   string         `yaml:"base_dir,omitempty"`
	OutputDir string         `yaml:"output_dir"`
	Locales   []string       `yaml:"locales"`
	Modules   []ModuleConfig `yaml:"modules"`
	Less      LessConfig     `yaml:"less"`
	Logging   LoggingConfig  `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics,omitempty"`
	History   HistoryConfig  `yaml:"history,omitempty"`
}

// ModuleConfig is one stylesheet bundle: <path>/<main>.less.
type ModuleConfig struct {
	Path string `yaml:"path"`
	Main string `yaml:"main"`
}

// LessConfig configures the lessc toolchain.
type LessConfig struct {
	Binary string `yaml:"binary,omitempty"` // explicit lessc path; discovered when empty
	Minify *bool  `yaml:"minify,omitempty"` // default true
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig configures the SQLite build history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // "off" disables; default <output_dir>/.uibuild-history.db
}

// MinifyEnabled reports whether compiled CSS is minified.
func (l LessConfig) MinifyEnabled() bool {
	return l.Minify == nil || *l.Minify
}

// ResolveOutputDir returns the output directory as an absolute path under base.
func (c *Config) ResolveOutputDir(base string) string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(base, c.OutputDir)
}

// MetricsTextfile returns the metrics textfile path resolved against base,
// or "" when the export is not configured.
func (c *Config) MetricsTextfile(base string) string {
	p := strings.TrimSpace(c.Metrics.Textfile)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// HistoryPath returns the history database path, or "" when history is off.
func (c *Config) HistoryPath(base string) string {
	switch p := strings.TrimSpace(c.History.Path); {
	case strings.EqualFold(p, HistoryOff):
		return ""
	case p == "":
		return filepath.Join(c.ResolveOutputDir(base), DefaultHistoryFile)
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(base, p)
	}
}

// Find returns <base>/uibuild.yaml if it exists, or "".
func Find(base string) string {
	p := filepath.Join(base, FileName)
	if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
		return p
	}
	return ""
}

// Load reads configPath, expands ${VAR} references, then applies environment
// overrides and defaults and validates. An empty configPath yields the
// defaults plus environment overrides.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ferrors.NotFoundError("configuration file not found").
					WithCause(err).
					WithContext("path", configPath).
					Build()
			}
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
				WithContext("path", configPath).
				Build()
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
				WithContext("path", configPath).
				Build()
		}
	}

	applyEnv(&cfg, os.LookupEnv)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if len(c.Locales) == 0 {
		c.Locales = locales.Defaults()
	}
	if len(c.Modules) == 0 {
		c.Modules = []ModuleConfig{{Path: "ui", Main: "controls"}}
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	minify := true
	example := Config{
		OutputDir: "dist",
		Locales:   locales.Defaults(),
		Modules:   []ModuleConfig{{Path: "ui", Main: "controls"}},
		Less:      LessConfig{Binary: "${UIBUILD_LESSC}", Minify: &minify},
		Logging:   LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics:   MetricsConfig{Textfile: "dist/uibuild.prom"},
		History:   HistoryConfig{Path: "dist/" + DefaultHistoryFile},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil { // #nosec G306 -- config is meant to be readable
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
