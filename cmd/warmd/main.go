// Package main provides the entry point for warmd.
//
// warmd keeps one warm evaluation session alive behind a local TCP line
// protocol. "warmd serve" runs the server for the current project; "warmd
// send", "warmd status" and "warmd shell" talk to it.
//
// Usage:
//
//	warmd serve --port 8000
//	warmd send 'set greeting hello'
//	warmd status -o yaml
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/warmd-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
