// Command fieldsync collects field submissions into a local store and sends
// them to the program's remote API.
package main

import (
	"os"

	"github.com/roach88/fieldsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
