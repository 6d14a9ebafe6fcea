package commands

import (
	"log/slog"

	"github.com/alecthomas/kong"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/version"
)

// Execute parses args, runs the selected command and returns the process
// exit code: 0 on success, 2 for bad usage and 1 for any other failure.
func Execute(g *Global, args []string, options ...kong.Option) int {
	cli := &CLI{}
	opts := append([]kong.Option{
		kong.Name("uibuild"),
		kong.Description("Build the player UI: localizations and LESS stylesheets into dist/."),
		kong.Writers(g.Stdout, g.Stderr),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	}, options...)

	parser, err := kong.New(cli, opts...)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(false, nil).WithOutput(g.Stderr).Handle(
			ferrors.InternalError("invalid command definition").WithCause(err).Build())
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return ferrors.ExitUsage
	}

	err = ctx.Run(g, cli)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).WithOutput(g.Stderr).Handle(err)
}
