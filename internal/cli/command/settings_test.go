package command

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/aranea-go/internal/core/codec"
	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
)

func TestSettingsShow_FirstBoot(t *testing.T) {
	r := newRunner(t)

	view := decodeJSON[SettingsView](t, r.mustRun("-o", "json", "settings", "show"))

	want := domain.DefaultRecord().Redacted()
	if diff := cmp.Diff(want, view.Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if view.Path != domain.DefaultSettingsPath {
		t.Errorf("Path = %q", view.Path)
	}
	if view.Fingerprint != service.Fingerprint(codec.Encode(domain.DefaultRecord())) {
		t.Errorf("Fingerprint = %q", view.Fingerprint)
	}

	data, err := os.ReadFile(filepath.Join(r.dataDir, "config.json"))
	if err != nil {
		t.Fatalf("bootstrap file: %v", err)
	}
	if string(data) != codec.Encode(domain.DefaultRecord()) {
		t.Errorf("bootstrap file = %q", data)
	}
}

func TestSettingsShow_Reveal(t *testing.T) {
	view := decodeJSON[SettingsView](t, newRunner(t).mustRun("-o", "json", "settings", "show", "--reveal"))
	if view.Settings.MainPass != domain.DefaultRecord().MainPass {
		t.Errorf("MainPass = %q, want the real password", view.Settings.MainPass)
	}
}

func TestSettingsSet(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun("-o", "json", "settings", "set", "--location", "lab-3", "--main-pass", "hunter2", "--interval", "5m")
	view := decodeJSON[SettingsView](t, out)
	if !view.Saved {
		t.Error("Saved = false")
	}
	if view.Settings.MainPass != "********" {
		t.Errorf("MainPass = %q, want masked", view.Settings.MainPass)
	}

	got := decodeJSON[SettingsView](t, r.mustRun("-o", "json", "settings", "show", "--reveal")).Settings
	want := domain.DefaultRecord()
	want.LocationName = "lab-3"
	want.MainPass = "hunter2"
	want.CheckInterval = 300000
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("persisted settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsSet_NoSave(t *testing.T) {
	r := newRunner(t)

	view := decodeJSON[SettingsView](t, r.mustRun("-o", "json", "settings", "set", "--check-interval", "1000", "--no-save"))
	if view.Saved || view.Settings.CheckInterval != 1000 {
		t.Errorf("view = %+v", view)
	}

	got := decodeJSON[SettingsView](t, r.mustRun("-o", "json", "settings", "show"))
	if got.Settings.CheckInterval != domain.DefaultCheckInterval {
		t.Errorf("CheckInterval = %d, want unchanged default", got.Settings.CheckInterval)
	}
}

func TestSettingsSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no fields", nil, "nothing to set"},
		{"both intervals", []string{"--check-interval", "5", "--interval", "1s"}, "mutually exclusive"},
		{"zero interval", []string{"--check-interval", "0"}, "out of range"},
		{"sub-millisecond", []string{"--interval", "10us"}, "out of range"},
		{"too large", []string{"--interval", "2000h"}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newRunner(t).run("", append([]string{"settings", "set"}, tt.args...)...)
			if res.err == nil || !strings.Contains(res.err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", res.err, tt.wantErr)
			}
		})
	}
}

func TestSettingsResetAndRaw(t *testing.T) {
	r := newRunner(t)
	r.mustRun("settings", "set", "--location", "roof")

	raw := strings.TrimSpace(r.mustRun("settings", "raw"))
	if !strings.Contains(raw, `"locationName":"roof"`) {
		t.Errorf("raw = %q", raw)
	}

	r.mustRun("settings", "reset")
	raw = strings.TrimSpace(r.mustRun("settings", "raw"))
	if raw != codec.Encode(domain.DefaultRecord()) {
		t.Errorf("raw after reset = %q", raw)
	}
}

func TestSettingsImport(t *testing.T) {
	r := newRunner(t)

	blob := `{"locationName":"imported","checkInterval":42,"endpoints":["http://a"]}`
	res := r.run(blob, "-o", "json", "settings", "import")
	if res.err != nil {
		t.Fatalf("import: %v", res.err)
	}

	got := decodeJSON[SettingsView](t, r.mustRun("-o", "json", "settings", "show")).Settings
	if got.LocationName != "imported" || got.CheckInterval != 42 {
		t.Errorf("settings = %+v", got)
	}
	if diff := cmp.Diff([]string{"http://a"}, got.Endpoints); diff != "" {
		t.Errorf("endpoints mismatch (-want +got):\n%s", diff)
	}
	if got.MainSSID != "" {
		t.Errorf("MainSSID = %q, want empty from the imported blob", got.MainSSID)
	}

	if res := r.run("  \n", "settings", "import"); res.err == nil {
		t.Error("empty import should fail")
	}
}

func TestSettings_UnknownBackend(t *testing.T) {
	res := newRunner(t).run("", "--backend", "floppy", "settings", "show")
	if res.err == nil || !strings.Contains(res.err.Error(), "unknown backend") {
		t.Errorf("err = %v", res.err)
	}
}

func TestSettings_MountFailure(t *testing.T) {
	r := newRunner(t)
	// A regular file where the data dir should be cannot be mounted.
	if err := os.WriteFile(r.dataDir, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	res := r.run("", "settings", "show")
	if !errors.Is(res.err, domain.ErrMount) {
		t.Errorf("err = %v, want ErrMount", res.err)
	}

	r.mustRun("--format-on-failure", "settings", "show")
	if info, err := os.Stat(r.dataDir); err != nil || !info.IsDir() {
		t.Errorf("data dir not recreated: %v", err)
	}
}

func TestEndpointCommands(t *testing.T) {
	r := newRunner(t)

	for i := 0; i < domain.MaxEndpoints; i++ {
		r.mustRun("endpoint", "add", "http://e"+string(rune('0'+i)))
	}
	res := r.run("", "endpoint", "add", "http://overflow")
	if !errors.Is(res.err, domain.ErrEndpointLimit) {
		t.Fatalf("sixth add err = %v, want ErrEndpointLimit", res.err)
	}

	r.mustRun("endpoint", "remove", "1")
	rows := decodeJSON[[]EndpointRow](t, r.mustRun("-o", "json", "endpoint", "list"))
	want := []EndpointRow{
		{0, "http://e0"}, {1, "http://e2"}, {2, "http://e3"}, {3, "http://e4"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("endpoints mismatch (-want +got):\n%s", diff)
	}

	if res := r.run("", "endpoint", "remove", "9"); !errors.Is(res.err, domain.ErrEndpointIndex) {
		t.Errorf("remove 9 err = %v, want ErrEndpointIndex", res.err)
	}
	if res := r.run("", "endpoint", "remove", "one"); !errors.Is(res.err, domain.ErrInvalidArgument) {
		t.Errorf("remove one err = %v, want ErrInvalidArgument", res.err)
	}

	r.mustRun("endpoint", "clear", "--no-save")
	if rows := decodeJSON[[]EndpointRow](t, r.mustRun("-o", "json", "endpoint", "list")); len(rows) != 4 {
		t.Errorf("clear --no-save persisted: %d rows left", len(rows))
	}
	r.mustRun("endpoint", "clear")
	if rows := decodeJSON[[]EndpointRow](t, r.mustRun("-o", "json", "endpoint", "list")); len(rows) != 0 {
		t.Errorf("rows after clear = %v", rows)
	}
}

func TestEndpointList_Table(t *testing.T) {
	r := newRunner(t)
	r.mustRun("endpoint", "add", "http://a")

	out := r.mustRun("endpoint", "list")
	if !strings.Contains(out, "INDEX") || !strings.Contains(out, "http://a") {
		t.Errorf("table output = %q", out)
	}
}
