package command

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
)

// EndpointRow is one line of endpoint list output.
type EndpointRow struct {
	Index int    `json:"index" yaml:"index" toml:"index"`
	URL   string `json:"url" yaml:"url" toml:"url"`
}

// EndpointCommand returns the endpoint subcommand group.
func EndpointCommand() *cli.Command {
	return &cli.Command{
		Name:    "endpoint",
		Aliases: []string{"ep"},
		Usage:   "Manage the endpoint list",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List endpoints in order",
				Action: endpointList,
			},
			{
				Name:      "add",
				Usage:     "Append an endpoint URL",
				ArgsUsage: "URL",
				Flags:     []cli.Flag{noSaveFlag()},
				Action:    endpointAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove the endpoint at INDEX",
				ArgsUsage: "INDEX",
				Flags:     []cli.Flag{noSaveFlag()},
				Action:    endpointRemove,
			},
			{
				Name:   "clear",
				Usage:  "Remove every endpoint",
				Flags:  []cli.Flag{noSaveFlag()},
				Action: endpointClear,
			},
		},
	}
}

func noSaveFlag() cli.Flag {
	return &cli.BoolFlag{Name: "no-save", Usage: "Print the result without writing"}
}

func endpointRows(store *service.ConfigStore) []EndpointRow {
	eps := store.Endpoints()
	rows := make([]EndpointRow, len(eps))
	for i, url := range eps {
		rows[i] = EndpointRow{Index: i, URL: url}
	}
	return rows
}

func endpointList(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	return render(c, endpointRows(store))
}

func endpointAdd(c *cli.Context) error {
	if c.NArg() != 1 || c.Args().First() == "" {
		return cli.Exit("usage: endpoint add URL", 2)
	}
	return editEndpoints(c, func(store *service.ConfigStore) error {
		return store.AddEndpoint(c.Args().First())
	})
}

func endpointRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: endpoint remove INDEX", 2)
	}
	index, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails("index must be an integer")
	}
	return editEndpoints(c, func(store *service.ConfigStore) error {
		return store.RemoveEndpoint(index)
	})
}

func endpointClear(c *cli.Context) error {
	return editEndpoints(c, func(store *service.ConfigStore) error {
		store.ClearEndpoints()
		return nil
	})
}

// editEndpoints applies fn, saves unless --no-save, and lists the result.
func editEndpoints(c *cli.Context, fn func(*service.ConfigStore) error) error {
	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := fn(store); err != nil {
		return err
	}
	if !c.Bool("no-save") {
		if err := store.Save(commandContext(c)); err != nil {
			return err
		}
	}
	return render(c, endpointRows(store))
}
