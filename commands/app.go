// Package commands implements the cmp-validator command line.
package commands

import (
	"fmt"
	"os"
)

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
