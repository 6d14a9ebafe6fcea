package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/uibuild/internal/config"
	"git.home.luguber.info/inful/uibuild/internal/sourcebase"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing configuration file"`
	Base  string `name:"base" help:"Directory to write uibuild.yaml into (default: discovered source base)"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = filepath.Join(i.targetDir(g), config.FileName)
	}
	_, _ = fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, "initialized successfully")
	return nil
}

// targetDir falls back to the working directory when no source base is found.
func (i *InitCmd) targetDir(g *Global) string {
	if i.Base != "" {
		return i.Base
	}
	start := g.WorkDir
	if start == "" {
		start, _ = os.Getwd()
	}
	if base, err := sourcebase.Locate(start); err == nil {
		return base
	}
	return start
}
