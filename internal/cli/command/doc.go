// Package command provides the warmd command-line interface.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: the App, global flags and configuration loading
//   - serve.go: runs the line server in the foreground
//   - send.go: sends one request line to a running server
//   - status.go: reports whether a server is running for a project
//   - shell.go: interactive request loop
//   - config.go: shows and validates the effective configuration
package command
