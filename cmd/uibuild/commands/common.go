package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/uibuild/internal/build"
	"git.home.luguber.info/inful/uibuild/internal/config"
	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/locales"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
	"git.home.luguber.info/inful/uibuild/internal/sourcebase"
	"git.home.luguber.info/inful/uibuild/internal/version"
)

// Global is shared with every subcommand.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
	// WorkDir is where source base discovery starts; the process working
	// directory when empty.
	WorkDir string
}

// CLI definition & global flags.
type CLI struct {
	Config          string           `short:"c" help:"Configuration file path (default: <base>/uibuild.yaml when present)"`
	Verbose         bool             `short:"v" help:"Enable verbose logging"`
	LogFormat       string           `name:"log-format" help:"Log format (text|json); overrides logging.format"`
	MetricsTextfile string           `name:"metrics-textfile" help:"Write Prometheus metrics to this file after each build"`
	Version         kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Create dist/, generate localizations and compile LESS (default)"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever ui/ changes"`
	History HistoryCmd `cmd:"" help:"List recent builds"`
	Locales LocalesCmd `cmd:"" help:"Print the effective locale list"`
	Init    InitCmd    `cmd:"" help:"Write an example uibuild.yaml"`
}

// AfterApply runs after flag parsing and installs the default logger. The
// level is refined once the config file has been read.
func (c *CLI) AfterApply(g *Global) error {
	if _, err := config.ParseLogFormat(c.LogFormat); err != nil {
		return err
	}
	level := config.NormalizeLogLevel(os.Getenv(config.EnvLogLevel))
	setupLogging(g.Stderr, c.Verbose, level, config.LogFormat(c.LogFormat))
	return nil
}

func setupLogging(w io.Writer, verbose bool, level config.LogLevel, format config.LogFormat) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	if config.NormalizeLogFormat(string(format)) == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// project is the resolved source base and its configuration.
type project struct {
	Base   string
	Config *config.Config
}

// loadProject resolves the source base and loads configuration.
// Precedence for the base: --base > config base_dir > discovery from WorkDir.
func (c *CLI) loadProject(g *Global, baseFlag string) (*project, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.Config != "" {
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, err
		}
	}

	base := baseFlag
	if base == "" && cfg != nil && cfg.BaseDir != "" {
		base = cfg.BaseDir
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(c.Config), base)
		}
	}
	if base == "" {
		start := g.WorkDir
		if start == "" {
			if start, err = os.Getwd(); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "get working directory").Build()
			}
		}
		if base, err = sourcebase.Locate(start); err != nil {
			return nil, err
		}
	}
	if base, err = filepath.Abs(base); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source base").Build()
	}

	if cfg == nil {
		if cfg, err = config.Load(config.Find(base)); err != nil {
			return nil, err
		}
	}

	format := config.LogFormat(c.LogFormat)
	if format == "" {
		format = cfg.Logging.Format
	}
	setupLogging(g.Stderr, c.Verbose, cfg.Logging.Level, format)

	slog.Debug("Resolved project",
		logfields.Path(base),
		slog.String("config", c.Config),
		slog.String("version", version.Version))
	return &project{Base: base, Config: cfg}, nil
}

// BuildFlags are shared by build and watch.
type BuildFlags struct {
	Force    bool     `short:"f" help:"Rebuild even when outputs are up to date"`
	Base     string   `name:"base" help:"Source base directory (default: discovered from the working directory)"`
	Locale   []string `name:"locale" short:"l" help:"Locale to generate (repeatable; default: built-in list)"`
	NoMinify bool     `name:"no-minify" help:"Write compiled CSS without minifying"`
}

// request turns flags and configuration into a build request.
// Precedence: flag > env > config file > defaults.
func (f *BuildFlags) request(p *project) (build.Request, error) {
	cfg := p.Config
	req := build.Request{
		BaseDir:    p.Base,
		OutputDir:  cfg.OutputDir,
		Locales:    cfg.Locales,
		Force:      f.Force,
		LessBinary: cfg.Less.Binary,
		NoMinify:   f.NoMinify || !cfg.Less.MinifyEnabled(),
	}
	if len(f.Locale) > 0 {
		var raw []string
		for _, l := range f.Locale {
			raw = append(raw, locales.ParseList(l)...)
		}
		tags, err := locales.Normalize(raw)
		if err != nil {
			return build.Request{}, err
		}
		req.Locales = tags
	}
	for _, m := range cfg.Modules {
		req.Modules = append(req.Modules, build.Module{Path: m.Path, Main: m.Main})
	}
	return req, nil
}
