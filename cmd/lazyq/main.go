// Command lazyq compiles and executes declarative query pipelines.
package main

import (
	"os"

	"github.com/roach88/lazyq/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
