package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"20"`
	Base  string `name:"base" help:"Source base directory (default: discovered from the working directory)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject(g, h.Base)
	if err != nil {
		return err
	}
	path := p.Config.HistoryPath(p.Base)
	if path == "" {
		return ferrors.ConfigError("build history is disabled (history.path: off)").Build()
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read build history").
			WithContext("path", path).
			Build()
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(g.Stdout, "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD ID\tOUTCOME\tDURATION\tFAILED STAGE")
	for _, e := range entries {
		failed := string(e.FailedStage)
		if failed == "" {
			failed = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Start.Local().Format(time.DateTime), e.BuildID, e.Outcome, e.Duration, failed)
	}
	return tw.Flush()
}
