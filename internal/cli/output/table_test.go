package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type endpointRow struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Note  string `json:"note" table:"wide"`
	skip  string
}

type deviceRow struct {
	Name      string        `json:"name"`
	Endpoints []string      `json:"endpoints"`
	Interval  time.Duration `json:"interval"`
	Build     struct {
		Version string `json:"version"`
	} `json:"build"`
	Hidden string `json:"hidden" table:"-"`
}

func TestTableFormatter_Table(t *testing.T) {
	table := &Table{
		Headers: []string{"NAME", "VALUE"},
		Rows:    [][]string{{"key1", "value1"}},
	}

	t.Run("pointer", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{}).Format(&buf, table); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if !strings.Contains(buf.String(), "NAME") || !strings.Contains(buf.String(), "key1") {
			t.Errorf("Format() = %q", buf.String())
		}
	})

	t.Run("value", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{}).Format(&buf, *table); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if !strings.Contains(buf.String(), "value1") {
			t.Errorf("Format() = %q", buf.String())
		}
	})

	t.Run("no headers", func(t *testing.T) {
		var buf bytes.Buffer
		if err := (&TableFormatter{NoHeaders: true}).Format(&buf, table); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if strings.Contains(buf.String(), "NAME") {
			t.Error("headers rendered with NoHeaders=true")
		}
	})
}

func TestToTable_Slice(t *testing.T) {
	rows := []endpointRow{
		{Index: 0, URL: "http://a", Note: "first"},
		{Index: 1, URL: "http://b"},
	}

	got, err := toTable(rows, false)
	if err != nil {
		t.Fatalf("toTable() error = %v", err)
	}
	want := &Table{
		Headers: []string{"INDEX", "URL"},
		Rows:    [][]string{{"0", "http://a"}, {"1", "http://b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toTable() mismatch (-want +got):\n%s", diff)
	}

	got, err = toTable(rows, true)
	if err != nil {
		t.Fatalf("toTable(wide) error = %v", err)
	}
	if diff := cmp.Diff([]string{"INDEX", "URL", "NOTE"}, got.Headers); diff != "" {
		t.Errorf("wide headers mismatch (-want +got):\n%s", diff)
	}
	if got.Rows[1][2] != "-" {
		t.Errorf("empty string cell = %q, want -", got.Rows[1][2])
	}
}

func TestToTable_ScalarSlice(t *testing.T) {
	got, err := toTable([]string{"http://a", "http://b"}, false)
	if err != nil {
		t.Fatalf("toTable() error = %v", err)
	}
	want := &Table{
		Headers: []string{"#", "VALUE"},
		Rows:    [][]string{{"0", "http://a"}, {"1", "http://b"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestToTable_Struct(t *testing.T) {
	d := deviceRow{
		Name:      "lab",
		Endpoints: []string{"http://a", "http://b"},
		Interval:  10 * time.Minute,
		Hidden:    "secret",
	}
	d.Build.Version = "v1.2.0"

	got, err := toTable(&d, false)
	if err != nil {
		t.Fatalf("toTable() error = %v", err)
	}
	want := &Table{
		Headers: []string{"FIELD", "VALUE"},
		Rows: [][]string{
			{"name", "lab"},
			{"endpoints", "http://a, http://b"},
			{"interval", "10m0s"},
			{"build.version", "v1.2.0"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toTable() mismatch (-want +got):\n%s", diff)
	}
}

func TestToTable_MapSorted(t *testing.T) {
	got, err := toTable(map[string]int{"b": 2, "a": 1}, false)
	if err != nil {
		t.Fatalf("toTable() error = %v", err)
	}
	want := [][]string{{"a", "1"}, {"b", "2"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTableFormatter_FallbackJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("Format() = %q, want 42", buf.String())
	}
}

func TestFormatList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"empty", []string{}, "-"},
		{"short", []string{"a", "b"}, "a, b"},
		{"long", []int{1, 2, 3, 4, 5}, "[5 items]"},
		{"structs", []endpointRow{{}}, "[1 items]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := toTable(struct {
				V any `json:"v"`
			}{tt.in}, false)
			if err != nil {
				t.Fatalf("toTable() error = %v", err)
			}
			if got := table.Rows[0][1]; got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"url":           "url",
		"checkInterval": "check_Interval",
		"ID":            "I_D",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
