package commands

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/smallstep/cli-utils/command"
	"github.com/smallstep/cli-utils/errs"

	"github.com/czertainly/cmp-validator/config"
	"github.com/czertainly/cmp-validator/service"
)

func init() {
	command.Register(cli.Command{
		Name:      "serve",
		Usage:     "run the HTTP validation service",
		UsageText: "**cmp-validator serve** <config>",
		Action:    serveAction,
		Description: `**cmp-validator serve** starts the HTTP validation service with the
profiles defined in the configuration file.

## POSITIONAL ARGUMENTS

<config>
:  The JSON configuration file.

## EXAMPLES

Run the service:
'''
$ cmp-validator serve /etc/cmp-validator/config.json
'''

Validate a message with the "device" profile:
'''
$ curl --data-binary @ir.der http://localhost:8080/profiles/device/validate
'''`,
	})
}

func serveAction(ctx *cli.Context) error {
	if err := errs.NumberOfArguments(ctx, 1); err != nil {
		return err
	}

	cfg, err := config.LoadConfiguration(ctx.Args().Get(0))
	if err != nil {
		fatal(err)
	}

	srv, err := service.New(cfg)
	if err != nil {
		fatal(err)
	}

	go service.StopHandler(srv)
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(err)
	}
	return nil
}
