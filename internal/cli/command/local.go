package command

import (
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/cli/connection"
	"github.com/yndnr/aranea-go/internal/server/localserver"
)

var errNeedSocket = cli.Exit("this command needs the agent's local socket: --server unix:///path/to/agent.sock", 2)

func localCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "agent-status",
			Usage:  "Show agent process status (local socket only)",
			Action: localStatus,
		},
		{
			Name:   "stop",
			Usage:  "Ask the agent process to shut down (local socket only)",
			Action: localStop,
		},
	}
}

func localClient(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	if !strings.HasPrefix(flags.Server, connection.UnixScheme) {
		return nil, errNeedSocket
	}
	return EnsureConnected(c)
}

func localStatus(c *cli.Context) error {
	client, err := localClient(c)
	if err != nil {
		return err
	}
	var status localserver.Status
	if err := client.Call(commandContext(c), http.MethodGet, "/local/status", nil, &status); err != nil {
		return err
	}
	return render(c, status)
}

func localStop(c *cli.Context) error {
	client, err := localClient(c)
	if err != nil {
		return err
	}
	var result struct {
		Status string `json:"status"`
	}
	err = client.Call(commandContext(c), http.MethodPost, "/local/shutdown", nil, &result)
	if connection.IsStatus(err, http.StatusConflict) {
		PrintError(c.App.ErrWriter, "warning: shutdown already in progress")
		return nil
	}
	if err != nil {
		return err
	}
	return render(c, result)
}
