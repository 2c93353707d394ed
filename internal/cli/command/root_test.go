package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/aranea-go/internal/cli/config"
	"github.com/yndnr/aranea-go/internal/infra/buildinfo"
)

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "aranea-cli" {
		t.Errorf("Name = %q, want aranea-cli", app.Name)
	}

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"settings", "endpoint", "codec", "token", "remote", "config", "version"} {
		if !commands[name] {
			t.Errorf("missing command %q", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "backend", "data-dir", "path", "server", "token", "output", "wide", "verbose"} {
		if !flags[name] {
			t.Errorf("missing flag %q", name)
		}
	}
}

func TestProfileFillsUnsetFlags(t *testing.T) {
	r := newRunner(t)

	profileDir := filepath.Join(t.TempDir(), "profile-data")
	cfg := config.Default()
	cfg.Output = "json"
	cfg.Local.DataDir = profileDir
	cfg.Local.SettingsPath = "/device/settings.json"
	if err := config.Save(cfg, r.config); err != nil {
		t.Fatal(err)
	}

	var stdout strings.Builder
	app := App()
	app.Writer = &stdout
	if err := app.Run([]string{"aranea-cli", "--config", r.config, "settings", "show"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	view := decodeJSON[SettingsView](t, stdout.String())
	if view.Path != "/device/settings.json" {
		t.Errorf("Path = %q, want /device/settings.json", view.Path)
	}
	if _, err := os.Stat(filepath.Join(profileDir, "device", "settings.json")); err != nil {
		t.Errorf("settings not written under the profile data dir: %v", err)
	}
}

func TestBadProfile(t *testing.T) {
	r := newRunner(t)
	if err := os.WriteFile(r.config, []byte("bogus = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if res := r.run("", "version"); res.err == nil {
		t.Error("expected an error for an unknown profile key")
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	res := newRunner(t).run("", "-o", "xml", "version")
	if res.err == nil || !strings.Contains(res.err.Error(), "unknown output format") {
		t.Errorf("err = %v, want unknown output format", res.err)
	}
}

func TestVersion(t *testing.T) {
	out := newRunner(t).mustRun("-o", "json", "version")
	info := decodeJSON[buildinfo.Info](t, out)
	if info.Version != buildinfo.Version || info.Platform == "" {
		t.Errorf("version output = %+v", info)
	}
}

func TestConfigCommands(t *testing.T) {
	r := newRunner(t)

	if out := r.mustRun("config", "path"); strings.TrimSpace(out) != r.config {
		t.Errorf("config path = %q, want %q", out, r.config)
	}

	r.mustRun("--server", "10.0.0.9:8080", "--token", "art_secret", "config", "init")
	if res := r.run("", "config", "init"); res.err == nil {
		t.Error("second init without --force should fail")
	}

	saved, err := config.Load(r.config)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.Remote.Server != "10.0.0.9:8080" || saved.Remote.Token != "art_secret" {
		t.Errorf("saved remote = %+v", saved.Remote)
	}

	out := r.mustRun("-o", "json", "config", "show")
	shown := decodeJSON[config.CLIConfig](t, out)
	if shown.Remote.Token != "***" {
		t.Errorf("shown token = %q, want masked", shown.Remote.Token)
	}
	if shown.Remote.Server != "10.0.0.9:8080" {
		t.Errorf("shown server = %q", shown.Remote.Server)
	}
}
