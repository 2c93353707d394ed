package command

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
)

// SettingsView is what the settings commands print.
type SettingsView struct {
	Settings    *domain.ConfigRecord `json:"settings" yaml:"settings" toml:"settings"`
	Path        string               `json:"path" yaml:"path" toml:"path"`
	Fingerprint string               `json:"fingerprint" yaml:"fingerprint" toml:"fingerprint"`
	Saved       bool                 `json:"saved" yaml:"saved" toml:"saved" table:"wide"`
}

func newSettingsView(store *service.ConfigStore, reveal, saved bool) SettingsView {
	rec := store.Record()
	if !reveal {
		rec = rec.Redacted()
	}
	return SettingsView{
		Settings:    rec,
		Path:        store.Path(),
		Fingerprint: store.Fingerprint(),
		Saved:       saved,
	}
}

// textSetters maps flag names to store setters.
var textSetters = []struct {
	flag  string
	usage string
	set   func(*service.ConfigStore, string)
}{
	{"location", "Location name", (*service.ConfigStore).SetLocationName},
	{"network", "Network name", (*service.ConfigStore).SetNetworkName},
	{"main-ssid", "Primary network SSID", (*service.ConfigStore).SetMainSSID},
	{"main-pass", "Primary network password", (*service.ConfigStore).SetMainPass},
	{"alt-ssid", "Secondary network SSID", (*service.ConfigStore).SetAltSSID},
	{"alt-pass", "Secondary network password", (*service.ConfigStore).SetAltPass},
	{"dev-ssid", "Fallback network SSID", (*service.ConfigStore).SetDevSSID},
	{"dev-pass", "Fallback network password", (*service.ConfigStore).SetDevPass},
}

// SettingsCommand returns the settings subcommand group.
func SettingsCommand() *cli.Command {
	setFlags := make([]cli.Flag, 0, len(textSetters)+3)
	for _, s := range textSetters {
		setFlags = append(setFlags, &cli.StringFlag{Name: s.flag, Usage: s.usage})
	}
	setFlags = append(setFlags,
		&cli.UintFlag{Name: "check-interval", Usage: "Check interval in milliseconds"},
		&cli.DurationFlag{Name: "interval", Usage: "Check interval as a duration (e.g. 5m)"},
		noSaveFlag(),
	)

	return &cli.Command{
		Name:  "settings",
		Usage: "Show and edit the device settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reveal", Usage: "Show passwords"},
				},
				Action: settingsShow,
			},
			{
				Name:   "set",
				Usage:  "Change one or more fields and save",
				Flags:  setFlags,
				Action: settingsSet,
			},
			{
				Name:   "reset",
				Usage:  "Restore factory settings and save",
				Action: settingsReset,
			},
			{
				Name:   "raw",
				Usage:  "Print the encoded settings file",
				Action: settingsRaw,
			},
			{
				Name:      "import",
				Usage:     "Replace the settings with an encoded blob from FILE or stdin",
				ArgsUsage: "[FILE]",
				Action:    settingsImport,
			},
		},
	}
}

func settingsShow(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	return render(c, newSettingsView(store, c.Bool("reveal"), false))
}

func settingsSet(c *cli.Context) error {
	interval, err := intervalFlag(c)
	if err != nil {
		return err
	}

	changed := interval != nil
	for _, s := range textSetters {
		changed = changed || c.IsSet(s.flag)
	}
	if !changed {
		return cli.Exit("nothing to set; pass at least one field flag", 2)
	}

	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, s := range textSetters {
		if c.IsSet(s.flag) {
			s.set(store, c.String(s.flag))
		}
	}
	if interval != nil {
		store.SetCheckInterval(*interval)
	}

	saved := false
	if !c.Bool("no-save") {
		if err := store.Save(commandContext(c)); err != nil {
			return err
		}
		saved = true
	}
	return render(c, newSettingsView(store, false, saved))
}

// intervalFlag returns the requested check interval in milliseconds, or
// nil when neither interval flag is set.
func intervalFlag(c *cli.Context) (*uint32, error) {
	var ms uint64
	switch {
	case c.IsSet("check-interval") && c.IsSet("interval"):
		return nil, cli.Exit("--check-interval and --interval are mutually exclusive", 2)
	case c.IsSet("check-interval"):
		ms = uint64(c.Uint("check-interval"))
	case c.IsSet("interval"):
		d := c.Duration("interval")
		if d < 0 {
			return nil, cli.Exit("--interval must be positive", 2)
		}
		ms = uint64(d / time.Millisecond)
	default:
		return nil, nil
	}

	if ms == 0 || ms > uint64(^uint32(0)) {
		return nil, cli.Exit(fmt.Sprintf("check interval %dms out of range", ms), 2)
	}
	v := uint32(ms)
	return &v, nil
}

func settingsReset(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := store.Reset(commandContext(c)); err != nil {
		return err
	}
	return render(c, newSettingsView(store, false, true))
}

func settingsRaw(c *cli.Context) error {
	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	_, err = fmt.Fprintln(c.App.Writer, store.Encode())
	return err
}

func settingsImport(c *cli.Context) error {
	blob, err := readInput(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(blob) == "" {
		return cli.Exit("empty settings blob", 2)
	}

	store, closeFn, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeFn()

	store.Decode(blob)
	if err := store.Save(commandContext(c)); err != nil {
		return err
	}
	return render(c, newSettingsView(store, false, true))
}

// readInput reads the first argument as a file, or stdin when absent or "-".
func readInput(c *cli.Context) (string, error) {
	var r io.Reader = os.Stdin
	if c.App.Reader != nil {
		r = c.App.Reader
	}
	if name := c.Args().First(); name != "" && name != "-" {
		data, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
