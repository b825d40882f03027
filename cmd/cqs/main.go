// Command cqs is the CLI entry point for the code intelligence engine.
package main

import (
	"os"

	"github.com/cqs-dev/cqs/cmd/cqs/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
