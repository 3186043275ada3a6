package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli"

	"github.com/smallstep/cli-utils/command"

	// Enabled commands
	_ "github.com/czertainly/cmp-validator/commands"
)

// Version is set by an LDFLAG at build time representing the git tag or commit
// for the current release
var Version = "N/A"

// BuildTime is set by an LDFLAG at build time representing the timestamp at
// the time of build
var BuildTime = "N/A"

func versionString() string {
	version, buildTime := Version, BuildTime
	if version == "N/A" {
		version = "0000000-dev"
	}
	if buildTime == "N/A" {
		buildTime = time.Now().UTC().Format("2006-01-02 15:04 MST")
	}
	return fmt.Sprintf("%s (%s/%s)\nRelease Date: %s", version, runtime.GOOS, runtime.GOARCH, buildTime)
}

func main() {
	app := cli.NewApp()
	app.Name = "cmp-validator"
	app.HelpName = "cmp-validator"
	app.Usage = "validate CMP (RFC 4210) messages"
	app.Version = versionString()
	app.Commands = command.Retrieve()
	app.EnableBashCompletion = true
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// fatal writes the passed error on the standard error and exits with the exit
// code 2. If the environment variable STEPDEBUG is set to 1 it shows the
// stack trace of the error.
func fatal(err error) {
	if os.Getenv("STEPDEBUG") == "1" {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(2)
}
