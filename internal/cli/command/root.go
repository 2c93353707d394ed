package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/cli/config"
	"github.com/yndnr/aranea-go/internal/cli/connection"
	"github.com/yndnr/aranea-go/internal/cli/output"
	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
	"github.com/yndnr/aranea-go/internal/infra/buildinfo"
	"github.com/yndnr/aranea-go/internal/storage"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
)

const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "aranea-cli",
		Usage:    "Inspect and edit aranea device settings",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			SettingsCommand(),
			EndpointCommand(),
			CodecCommand(),
			TokenCommand(),
			RemoteCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			c.App.Metadata[metaConfig] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags. Unset flags fall back to the
// CLI config file.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"ARANEA_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Byte store backend: dir, badger, memory",
			EnvVars: []string{"ARANEA_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Backend data directory",
			EnvVars: []string{"ARANEA_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "Settings file path on the backend",
			EnvVars: []string{"ARANEA_SETTINGS_PATH"},
		},
		&cli.BoolFlag{
			Name:  "format-on-failure",
			Usage: "Erase and recreate the byte store when it cannot be mounted",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Agent address for remote commands (e.g. 127.0.0.1:8080)",
			EnvVars: []string{"ARANEA_SERVER"},
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "Agent bearer token for remote commands",
			EnvVars: []string{"ARANEA_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml, toml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log store activity to stderr",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Backend      string
	DataDir      string
	SettingsPath string
	Format       bool

	Server string
	Token  string

	Output string
	Wide   bool

	Verbose bool
}

// ParseGlobalFlags extracts global flags from context, filling unset ones
// from the CLI config.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}
	pick := func(name, fallback string) string {
		if c.IsSet(name) {
			return c.String(name)
		}
		return fallback
	}

	return &GlobalFlags{
		Backend:      pick("backend", cfg.Local.Backend),
		DataDir:      pick("data-dir", cfg.Local.DataDir),
		SettingsPath: pick("path", cfg.Local.SettingsPath),
		Format:       c.Bool("format-on-failure"),
		Server:       pick("server", cfg.Remote.Server),
		Token:        pick("token", cfg.Remote.Token),
		Output:       pick("output", cfg.Output),
		Wide:         c.Bool("wide"),
		Verbose:      c.Bool("verbose"),
	}
}

// render writes data to the app's writer in the selected format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

// cliLogger logs to stderr in verbose mode and discards otherwise.
func cliLogger(c *cli.Context) logger.Logger {
	if !ParseGlobalFlags(c).Verbose {
		return logger.NewNop()
	}
	l, err := logger.New(logger.Config{Level: "debug", Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return logger.NewNop()
	}
	return l
}

// openStore opens the settings store on the configured backend. The
// returned close func unmounts the backend.
func openStore(c *cli.Context) (*service.ConfigStore, func(), error) {
	flags := ParseGlobalFlags(c)
	log := cliLogger(c)

	cfg := storage.DefaultConfig(flags.DataDir)
	cfg.Backend = flags.Backend
	backend, err := storage.New(cfg, log.Slog())
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 2)
	}

	store := service.NewConfigStore(backend,
		service.WithPath(flags.SettingsPath),
		service.WithLogger(log),
		service.WithFormatOnFailure(flags.Format),
	)
	closeFn := func() {
		if err := backend.Close(); err != nil {
			log.Warn("closing backend failed", "error", err)
		}
	}

	if err := store.Open(commandContext(c)); err != nil {
		if !errors.Is(err, domain.ErrBootstrap) {
			closeFn()
			return nil, nil, err
		}
		PrintError(c.App.ErrWriter, "warning: %v", err)
	}
	return store, closeFn, nil
}

// EnsureConnected returns an HTTP client for the configured agent.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	if flags.Server == "" {
		return nil, cli.Exit("no agent address; pass --server or set remote.server in the CLI config", 2)
	}
	return connection.NewHTTPClient(flags.Server, flags.Token), nil
}

// commandContext returns the context commands run under.
func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

// PrintError prints a message to w, or stderr when w is nil.
func PrintError(w io.Writer, format string, args ...any) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}
