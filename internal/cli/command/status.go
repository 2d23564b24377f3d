package command

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/warmd-go/internal/cli/connection"
	"github.com/yndnr/warmd-go/internal/cli/output"
)

// Status describes the server for a project root.
type Status struct {
	Root     string `json:"root" yaml:"root"`
	LockFile string `json:"lock_file" yaml:"lock_file"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Running  bool   `json:"running" yaml:"running"`
	Latency  string `json:"latency,omitempty" yaml:"latency,omitempty"`
	Info     string `json:"info,omitempty" yaml:"info,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// StatusCommand reports whether a server is running for the project.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show whether a server is running for the project",
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	root, err := resolveRoot(cfg)
	if err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	st := probe(c.Context, cfg.Server.Host, root, cfg.Project.LockFile, flags.Timeout)

	if err := formatterFor(c).Format(c.App.Writer, st); err != nil {
		return err
	}
	if !st.Running {
		return cli.Exit("", 1)
	}
	return nil
}

// probe reads the discovery file and pings the server behind it.
func probe(ctx context.Context, host, root, lockFile string, timeout time.Duration) *Status {
	st := &Status{
		Root:     root,
		LockFile: filepath.Join(root, lockFile),
	}

	port, err := connection.DiscoverPort(root, lockFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			st.Error = "no discovery file"
		} else {
			st.Error = err.Error()
		}
		return st
	}
	st.Port = port

	addr, _ := connection.DiscoverAddr(host, root, lockFile)
	client := connection.NewClient(addr,
		connection.WithDialTimeout(timeout),
		connection.WithIOTimeout(timeout),
	)

	start := time.Now()
	if _, err := client.Send(ctx, "ping"); err != nil {
		var se *connection.ServerError
		if !errors.As(err, &se) {
			st.Error = err.Error()
			return st
		}
		// A busy server is still running.
		st.Error = se.Message
	}
	st.Running = true
	st.Latency = time.Since(start).Round(time.Microsecond).String()

	if st.Error == "" {
		if info, err := client.Send(ctx, "info"); err == nil {
			st.Info = info
		}
	}
	return st
}

func formatterFor(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(ParseGlobalFlags(c).Output))
}
