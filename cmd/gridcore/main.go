// Command gridcore drives the spreadsheet transaction engine.
package main

import (
	"fmt"
	"os"

	"github.com/PawelJastrzebski/quadratic-fork/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
