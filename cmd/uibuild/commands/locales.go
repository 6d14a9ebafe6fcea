package commands

import (
	"fmt"

	"git.home.luguber.info/inful/uibuild/internal/locales"
)

// LocalesCmd implements the 'locales' command.
type LocalesCmd struct {
	Base   string   `name:"base" help:"Source base directory (default: discovered from the working directory)"`
	Locale []string `name:"locale" short:"l" help:"Locale to validate (repeatable)"`
}

func (l *LocalesCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject(g, l.Base)
	if err != nil {
		return err
	}
	flags := BuildFlags{Base: l.Base, Locale: l.Locale}
	req, err := flags.request(p)
	if err != nil {
		return err
	}
	tags, err := locales.Normalize(req.Locales)
	if err != nil {
		return err
	}
	for _, t := range tags {
		_, _ = fmt.Fprintln(g.Stdout, t)
	}
	return nil
}
