package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/warmd-go/internal/infra/buildinfo"
	"github.com/yndnr/warmd-go/internal/infra/confloader"
	"github.com/yndnr/warmd-go/internal/infra/projectroot"
	"github.com/yndnr/warmd-go/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "warmd",
		Usage:                "keep a warm evaluation session behind a local line protocol",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			ServeCommand(),
			SendCommand(),
			StatusCommand(),
			ShellCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML configuration file",
			EnvVars: []string{"WARMD_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "project root (default: located from the working directory)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format for status and config: table, json, yaml",
			Value:   "table",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "client connect and response timeout",
			Value: 60 * time.Second,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigFile string
	Root       string
	LogLevel   string
	Output     string
	Timeout    time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigFile: c.String("config"),
		Root:       c.String("root"),
		LogLevel:   c.String("log-level"),
		Output:     c.String("output"),
		Timeout:    c.Duration("timeout"),
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then WARMD_* environment variables, then global and command flags.
func loadConfig(c *cli.Context, overrides map[string]any) (*config.ServerConfig, error) {
	flags := ParseGlobalFlags(c)

	values := make(map[string]any, len(overrides)+2)
	if flags.Root != "" {
		values["project.root"] = flags.Root
	}
	if flags.LogLevel != "" {
		values["log.level"] = flags.LogLevel
	}
	for k, v := range overrides {
		values[k] = v
	}

	opts := []confloader.Option{confloader.WithOverrides(values)}
	if flags.ConfigFile != "" {
		opts = append(opts, confloader.WithConfigFile(flags.ConfigFile))
	}

	cfg := config.Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.Sanitize(cfg)
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveRoot finds the project root for cfg from the working directory.
func resolveRoot(cfg *config.ServerConfig) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return projectroot.Resolve(cfg.Project.Root, cfg.Project.Anchors, wd)
}

// PrintError prints an error message to stderr.
func PrintError(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.ErrWriter, "error: "+format+"\n", args...)
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return formatterFor(c).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
