package main

import (
	"fmt"
	"os"

	"saha.org/internal/cli"
	"saha.org/internal/obs"
)

func main() {
	obs.Init()
	// Results go to stdout; structured logs must not interleave with them.
	obs.Logger().SetOutput(os.Stderr)
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
