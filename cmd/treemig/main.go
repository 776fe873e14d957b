package main

import (
	"fmt"
	"os"

	"github.com/roach88/treemig/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "treemig: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
