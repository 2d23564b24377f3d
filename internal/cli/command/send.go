package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/warmd-go/internal/cli/connection"
)

// Exit codes for send.
const (
	ExitServerError = 2
	ExitAtCapacity  = 3
)

// SendCommand sends one request line.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one request line to the running server",
		ArgsUsage: "LINE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "server address (default: read from the project's discovery file)",
			},
		},
		Action: runSend,
	}
}

func runSend(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("send: a request line is required", 1)
	}
	line := strings.Join(c.Args().Slice(), " ")

	client, err := newClient(c)
	if err != nil {
		return err
	}

	resp, err := client.Send(c.Context, line)
	if err != nil {
		var se *connection.ServerError
		if errors.As(err, &se) {
			code := ExitServerError
			if se.IsCapacity() {
				code = ExitAtCapacity
			}
			return cli.Exit(connection.ErrorPrefix+se.Message, code)
		}
		return err
	}

	fmt.Fprintln(c.App.Writer, resp)
	return nil
}

// newClient builds a client for --addr or the discovered server.
func newClient(c *cli.Context) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)
	opts := []connection.ClientOption{
		connection.WithDialTimeout(flags.Timeout),
		connection.WithIOTimeout(flags.Timeout),
	}

	if addr := c.String("addr"); addr != "" {
		return connection.NewClient(addr, opts...), nil
	}

	cfg, err := loadConfig(c, nil)
	if err != nil {
		return nil, err
	}
	root, err := resolveRoot(cfg)
	if err != nil {
		return nil, err
	}
	addr, err := connection.DiscoverAddr(cfg.Server.Host, root, cfg.Project.LockFile)
	if err != nil {
		return nil, fmt.Errorf("no running server for %s: %w", root, err)
	}
	return connection.NewClient(addr, opts...), nil
}
