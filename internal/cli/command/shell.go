package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/warmd-go/internal/cli/repl"
)

// ShellCommand starts an interactive request loop.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Send request lines interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "server address (default: read from the project's discovery file)",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (empty disables persistence)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}

	history := repl.NewHistory(c.String("history"))
	if err := history.Load(); err != nil {
		PrintError(c, "load history: %v", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			PrintError(c, "save history: %v", err)
		}
	}()

	fmt.Fprintf(c.App.Writer, "connected to %s, \\help lists commands, \\quit exits\n", client.Addr())

	r := repl.New(client.Send,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(history),
	)
	return r.Run(c.Context)
}
