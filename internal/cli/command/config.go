package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/warmd-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration inspection",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration as YAML",
				Action: configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c, nil)
	if err != nil {
		return err
	}
	return (&output.YAMLFormatter{}).Format(c.App.Writer, cfg)
}

func configValidate(c *cli.Context) error {
	if file := c.Args().First(); file != "" {
		if err := c.Set("config", file); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(c, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	source := ParseGlobalFlags(c).ConfigFile
	if source == "" {
		source = "defaults and environment"
	}
	fmt.Fprintf(c.App.Writer, "configuration is valid: %s\n", source)

	if root, err := resolveRoot(cfg); err != nil {
		fmt.Fprintf(c.App.Writer, "project root: not found (%v)\n", err)
	} else {
		fmt.Fprintf(c.App.Writer, "project root: %s\n", root)
	}
	return nil
}
