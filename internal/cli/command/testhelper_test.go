package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/aranea-go/internal/core/service"
	"github.com/yndnr/aranea-go/internal/server/httpserver/handler"
	"github.com/yndnr/aranea-go/internal/storage"
)

// result captures one CLI run.
type result struct {
	stdout string
	stderr string
	err    error
}

// runner runs the app against a private config file and, for local
// commands, a dir backend in a temp directory.
type runner struct {
	t       *testing.T
	config  string
	dataDir string
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	dir := t.TempDir()
	return &runner{
		t:       t,
		config:  filepath.Join(dir, "cli.toml"),
		dataDir: filepath.Join(dir, "data"),
	}
}

// run executes args with stdin as standard input.
func (r *runner) run(stdin string, args ...string) result {
	r.t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"aranea-cli", "--config", r.config, "--backend", "dir", "--data-dir", r.dataDir}
	err := app.Run(append(full, args...))
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustRun runs args and fails the test on error.
func (r *runner) mustRun(args ...string) string {
	r.t.Helper()
	res := r.run("", args...)
	if res.err != nil {
		r.t.Fatalf("%v: %v (stderr %q)", args, res.err, res.stderr)
	}
	return res.stdout
}

// decodeJSON unmarshals a command's JSON output.
func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return v
}

// newAgent serves the management API over an opened memory-backed store.
func newAgent(t *testing.T) (*httptest.Server, *service.ConfigStore) {
	t.Helper()
	store := service.NewConfigStore(storage.NewMemoryBackend())
	if err := store.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	srv := httptest.NewServer(handler.New(store, nil))
	t.Cleanup(srv.Close)
	return srv, store
}
