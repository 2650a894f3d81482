// Command percolate simulates stochastic contagion spread on a grid.
package main

import (
	"fmt"
	"os"

	"github.com/werous/covid-transmission-sim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
