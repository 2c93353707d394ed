package command

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/cli/connection"
	"github.com/yndnr/aranea-go/internal/server/httpserver/handler"
)

// RemoteCommand returns the remote subcommand group, which drives a
// running agent over its HTTP API.
func RemoteCommand() *cli.Command {
	setFlags := make([]cli.Flag, 0, len(textSetters)+2)
	for _, s := range textSetters {
		setFlags = append(setFlags, &cli.StringFlag{Name: s.flag, Usage: s.usage})
	}
	setFlags = append(setFlags,
		&cli.UintFlag{Name: "check-interval", Usage: "Check interval in milliseconds"},
		&cli.DurationFlag{Name: "interval", Usage: "Check interval as a duration (e.g. 5m)"},
		noSaveFlag(),
	)

	return &cli.Command{
		Name:  "remote",
		Usage: "Manage a running aranea-agent",
		Subcommands: append([]*cli.Command{
			{
				Name:   "status",
				Usage:  "Show device information",
				Action: remoteStatus,
			},
			{
				Name:  "show",
				Usage: "Show the agent's settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reveal", Usage: "Show passwords (needs --token)"},
				},
				Action: remoteShow,
			},
			{
				Name:   "set",
				Usage:  "Change one or more fields on the agent",
				Flags:  setFlags,
				Action: remoteSet,
			},
			{
				Name:   "raw",
				Usage:  "Print the agent's encoded settings",
				Action: remoteRaw,
			},
			{
				Name:      "push",
				Usage:     "Replace the agent's settings with a blob from FILE or stdin",
				ArgsUsage: "[FILE]",
				Action:    remotePush,
			},
			{
				Name:      "add-endpoint",
				Usage:     "Append an endpoint on the agent",
				ArgsUsage: "URL",
				Action:    remoteAddEndpoint,
			},
			{
				Name:      "remove-endpoint",
				Usage:     "Remove the endpoint at INDEX on the agent",
				ArgsUsage: "INDEX",
				Action:    remoteRemoveEndpoint,
			},
			remoteAction("save", "Persist the agent's in-memory settings", http.MethodPost, "/api/settings/save"),
			remoteAction("reload", "Reload the agent's settings from its byte store", http.MethodPost, "/api/settings/reload"),
			remoteAction("reset", "Restore factory settings on the agent", http.MethodPost, "/api/settings/reset"),
			remoteAction("clear-endpoints", "Remove every endpoint on the agent", http.MethodDelete, "/api/settings/endpoints"),
			{
				Name:   "restart",
				Usage:  "Remount the agent's byte store and reload",
				Action: remoteRestart,
			},
		}, localCommands()...),
	}
}

// remoteAction builds a command that calls one settings route and prints
// the returned settings.
func remoteAction(name, usage, method, path string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return remoteSettingsCall(c, method, path, nil)
		},
	}
}

func remoteSettingsCall(c *cli.Context, method, path string, body any) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	var result handler.SettingsResponse
	if err := client.Call(commandContext(c), method, path, body, &result); err != nil {
		return err
	}
	return render(c, result)
}

func remoteStatus(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	var info handler.DeviceInfoResponse
	if err := client.Call(commandContext(c), http.MethodGet, "/api/device/info", nil, &info); err != nil {
		return err
	}
	return render(c, info)
}

func remoteShow(c *cli.Context) error {
	path := "/api/settings"
	if c.Bool("reveal") {
		path += "?reveal=true"
	}
	return remoteSettingsCall(c, http.MethodGet, path, nil)
}

func remoteSet(c *cli.Context) error {
	patch, err := patchFromFlags(c)
	if err != nil {
		return err
	}
	path := "/api/settings"
	if c.Bool("no-save") {
		path += "?save=false"
	}
	return remoteSettingsCall(c, http.MethodPatch, path, patch)
}

// patchFromFlags builds a settings patch from the set flags.
func patchFromFlags(c *cli.Context) (*handler.SettingsPatch, error) {
	interval, err := intervalFlag(c)
	if err != nil {
		return nil, err
	}

	patch := &handler.SettingsPatch{CheckInterval: interval}
	fields := map[string]**string{
		"location":  &patch.LocationName,
		"network":   &patch.NetworkName,
		"main-ssid": &patch.MainSSID,
		"main-pass": &patch.MainPass,
		"alt-ssid":  &patch.AltSSID,
		"alt-pass":  &patch.AltPass,
		"dev-ssid":  &patch.DevSSID,
		"dev-pass":  &patch.DevPass,
	}

	changed := interval != nil
	for flag, field := range fields {
		if c.IsSet(flag) {
			v := c.String(flag)
			*field = &v
			changed = true
		}
	}
	if !changed {
		return nil, cli.Exit("nothing to set; pass at least one field flag", 2)
	}
	return patch, nil
}

func remoteRaw(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	resp, err := client.Get(commandContext(c), "/api/settings/raw")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return connection.ParseResponse(resp, nil)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(c.App.Writer, resp.Body); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer)
	return err
}

func remotePush(c *cli.Context) error {
	blob, err := readInput(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(blob) == "" {
		return cli.Exit("empty settings blob", 2)
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	resp, err := client.Put(commandContext(c), "/api/settings/raw", strings.NewReader(blob))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var result handler.SettingsResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, result)
}

func remoteAddEndpoint(c *cli.Context) error {
	if c.NArg() != 1 || c.Args().First() == "" {
		return cli.Exit("usage: remote add-endpoint URL", 2)
	}
	return remoteSettingsCall(c, http.MethodPost, "/api/settings/endpoints",
		handler.AddEndpointRequest{URL: c.Args().First()})
}

func remoteRemoveEndpoint(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: remote remove-endpoint INDEX", 2)
	}
	index, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return cli.Exit("index must be an integer", 2)
	}
	return remoteSettingsCall(c, http.MethodDelete, "/api/settings/endpoints/"+strconv.Itoa(index), nil)
}

func remoteRestart(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	var result handler.RestartResponse
	if err := client.Call(commandContext(c), http.MethodPost, "/api/device/restart", nil, &result); err != nil {
		return err
	}
	if result.Warning != "" {
		PrintError(c.App.ErrWriter, "warning: %s", result.Warning)
	}
	return render(c, result)
}
