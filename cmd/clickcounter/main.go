// Command clickcounter counts taps into an embedded SQLite table.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/clickcounter/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "clickcounter:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
