package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group for the CLI's own
// settings file.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the aranea-cli config file",
		Subcommands: []*cli.Command{
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
			{
				Name:   "show",
				Usage:  "Show the effective CLI settings",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write a config file from the current flags",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: configInit,
			},
		},
	}
}

func configPath(c *cli.Context) error {
	_, err := fmt.Fprintln(c.App.Writer, c.String("config"))
	return err
}

func effectiveConfig(c *cli.Context) *config.CLIConfig {
	flags := ParseGlobalFlags(c)
	return &config.CLIConfig{
		Output: flags.Output,
		Local: config.LocalConfig{
			Backend:      flags.Backend,
			DataDir:      flags.DataDir,
			SettingsPath: flags.SettingsPath,
		},
		Remote: config.RemoteConfig{
			Server: flags.Server,
			Token:  flags.Token,
		},
	}
}

func configShow(c *cli.Context) error {
	cfg := effectiveConfig(c)
	if cfg.Remote.Token != "" {
		cfg.Remote.Token = "***"
	}
	return render(c, cfg)
}

func configInit(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return cli.Exit(path+" exists; pass --force to overwrite", 1)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.Save(effectiveConfig(c), path); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.App.Writer, "wrote", path)
	return err
}
