// Command weave manages collaborative text sessions stored in SQLite.
//
// Usage:
//
//	weave init "hello" --db ./weave.db
//	weave edit <session> " world" --start 5
//	weave undo <session> 0
//	weave verify
package main

import (
	"fmt"
	"os"

	"github.com/roach88/weave/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
