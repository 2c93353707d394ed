package codec

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yndnr/aranea-go/internal/core/domain"
)

var equateEmpty = cmpopts.EquateEmpty()

const defaultBlob = `{"locationName":"unset","networkName":"","mainSSID":"cluster1","mainPass":"ISMS12345@",` +
	`"altSSID":"tomikawa-wifi","altPass":"tomikawa153855","devSSID":"fgop","devPass":"tetrad12345@@@",` +
	`"checkInterval":600000,"endpoints":[]}`

func TestEncode_Defaults(t *testing.T) {
	got := Encode(domain.DefaultRecord())
	if got != defaultBlob {
		t.Errorf("Encode(defaults) =\n%s\nwant\n%s", got, defaultBlob)
	}
}

func TestEncode_FieldOrderAndEndpoints(t *testing.T) {
	r := &domain.ConfigRecord{
		LocationName:  "lab",
		NetworkName:   "n",
		MainSSID:      "a",
		MainPass:      "b",
		AltSSID:       "c",
		AltPass:       "d",
		DevSSID:       "e",
		DevPass:       "f",
		CheckInterval: 42,
		Endpoints:     []string{"http://a", "http://b", "http://a"},
	}

	want := `{"locationName":"lab","networkName":"n","mainSSID":"a","mainPass":"b","altSSID":"c",` +
		`"altPass":"d","devSSID":"e","devPass":"f","checkInterval":42,` +
		`"endpoints":["http://a","http://b","http://a"]}`
	if got := Encode(r); got != want {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_Escaping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `plain`, want: `plain`},
		{in: `say "hi"`, want: `say \"hi\"`},
		{in: `C:\dir`, want: `C:\\dir`},
		{in: "a\nb\rc\td", want: `a\nb\rc\td`},
		{in: "bell\x07 and ü", want: "bell\x07 and ü"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := escape(tt.in); got != tt.want {
				t.Errorf("escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode_SampleFile(t *testing.T) {
	blob := `{"locationName":"unset","networkName":"","mainSSID":"cluster1","mainPass":"...",` +
		`"altSSID":"...","altPass":"...","devSSID":"...","devPass":"...","checkInterval":600000,` +
		`"endpoints":["http://a","http://b"]}`

	want := &domain.ConfigRecord{
		LocationName:  "unset",
		MainSSID:      "cluster1",
		MainPass:      "...",
		AltSSID:       "...",
		AltPass:       "...",
		DevSSID:       "...",
		DevPass:       "...",
		CheckInterval: 600000,
		Endpoints:     []string{"http://a", "http://b"},
	}
	if diff := cmp.Diff(want, Decode(blob), equateEmpty); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  *domain.ConfigRecord
	}{
		{name: "defaults", rec: domain.DefaultRecord()},
		{
			name: "escapable characters",
			rec: &domain.ConfigRecord{
				LocationName:  "Tokyo \"HQ\"\tfloor 3",
				NetworkName:   "line1\nline2\r\n",
				MainSSID:      `back\slash`,
				MainPass:      `p"a\s\s`,
				AltSSID:       `C:\new\table\rows`,
				AltPass:       "\t\t",
				DevSSID:       `\"`,
				DevPass:       `quote at end"`,
				CheckInterval: 1,
				Endpoints:     []string{`http://a/"q"`, `http://b/\x`, "http://c"},
			},
		},
		{
			name: "five endpoints with duplicates",
			rec: &domain.ConfigRecord{
				LocationName:  "site",
				CheckInterval: 4294967295,
				Endpoints:     []string{"e1", "e2", "e1", "e4", "e5"},
			},
		},
		{
			name: "utf8 and control bytes",
			rec: &domain.ConfigRecord{
				LocationName:  "富川",
				NetworkName:   "\x01\x02",
				CheckInterval: 30000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(Encode(tt.rec))
			if diff := cmp.Diff(tt.rec, got, equateEmpty); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_EmptyLocationBecomesUnset(t *testing.T) {
	rec := domain.DefaultRecord()
	rec.LocationName = ""

	got := Decode(Encode(rec))
	if got.LocationName != domain.UnsetLocation {
		t.Errorf("LocationName = %q, want %q", got.LocationName, domain.UnsetLocation)
	}

	want := rec.Clone()
	want.LocationName = domain.UnsetLocation
	if diff := cmp.Diff(want, got, equateEmpty); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"",
		"garbage",
		defaultBlob,
		`{"locationName":"","checkInterval":-1,"endpoints":["a","","b","c","d","e","f"]}`,
		`{"locationName":"trailing\\","networkName":"x"}`,
		`{"mainSSID":"unterminated`,
	}

	for _, in := range inputs {
		once := Decode(Encode(Decode(in)))
		twice := Decode(Encode(once))
		if diff := cmp.Diff(once, twice, equateEmpty); diff != "" {
			t.Errorf("input %q not idempotent (-once +twice):\n%s", in, diff)
		}
	}
}

func TestDecode_CheckInterval(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want uint32
	}{
		{name: "missing", blob: `{"locationName":"x"}`, want: 600000},
		{name: "zero", blob: `{"checkInterval":0}`, want: 600000},
		{name: "negative", blob: `{"checkInterval":-5,"endpoints":[]}`, want: 600000},
		{name: "positive", blob: `{"checkInterval":1234,"endpoints":[]}`, want: 1234},
		{name: "digits then minus", blob: `{"checkInterval":12-3}`, want: 12},
		{name: "double minus", blob: `{"checkInterval":--5}`, want: 600000},
		{name: "quoted", blob: `{"checkInterval":"5000"}`, want: 600000},
		{name: "space before value", blob: `{"checkInterval": 5000}`, want: 600000},
		{name: "max uint32", blob: `{"checkInterval":4294967295}`, want: 4294967295},
		{name: "too large", blob: `{"checkInterval":4294967296}`, want: 600000},
		{name: "huge", blob: `{"checkInterval":99999999999999999999999}`, want: 600000},
		{name: "end of text", blob: `{"checkInterval":77`, want: 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.blob).CheckInterval; got != tt.want {
				t.Errorf("CheckInterval = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecode_EndpointBound(t *testing.T) {
	blob := `{"endpoints":["e1","e2","e3","e4","e5","e6","e7"]}`

	got := Decode(blob).Endpoints
	want := []string{"e1", "e2", "e3", "e4", "e5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Endpoints mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Endpoints(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want []string
	}{
		{name: "missing", blob: `{"locationName":"x"}`, want: nil},
		{name: "empty array", blob: `{"endpoints":[]}`, want: nil},
		{name: "no closing bracket", blob: `{"endpoints":["a","b"`, want: nil},
		{name: "empty strings skipped", blob: `{"endpoints":["","a","",""]}`, want: []string{"a"}},
		{name: "escaped quote and backslash", blob: `{"endpoints":["a\"b","c\\d"]}`, want: []string{`a"b`, `c\d`}},
		{name: "newline escape kept verbatim", blob: `{"endpoints":["a\nb"]}`, want: []string{`a\nb`}},
		{name: "unterminated element", blob: `{"endpoints":["a","bc]`, want: []string{"a", "bc"}},
		{name: "bracket inside element", blob: `{"endpoints":["http://[::1]/x","b"]}`, want: []string{"http://[::1"}},
		{name: "whitespace between elements", blob: `{"endpoints":[ "a" , "b" ]}`, want: []string{"a", "b"}},
		{name: "spaced label not matched", blob: `{"endpoints": ["a"]}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.blob).Endpoints
			if diff := cmp.Diff(tt.want, got, equateEmpty); diff != "" {
				t.Errorf("Endpoints mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_ScalarUnescapeSet(t *testing.T) {
	got := Decode(`{"networkName":"a\nb\rc\td\"e\\f\qg"}`).NetworkName
	want := "a\nb\rc\td\"e\\f\\qg"
	if got != want {
		t.Errorf("NetworkName = %q, want %q", got, want)
	}
}

func TestDecode_MalformedInput(t *testing.T) {
	inputs := []string{
		"",
		"not json at all",
		"{",
		`{"locationName":`,
		`"""""""`,
		`\\\\"`,
		strings.Repeat("]", 100),
		`{"endpoints":[` + strings.Repeat(`"`, 33),
	}

	for _, in := range inputs {
		r := Decode(in)
		if r.LocationName == "" {
			t.Errorf("Decode(%q): empty LocationName", in)
		}
		if r.CheckInterval == 0 {
			t.Errorf("Decode(%q): zero CheckInterval", in)
		}
		if len(r.Endpoints) > domain.MaxEndpoints {
			t.Errorf("Decode(%q): %d endpoints", in, len(r.Endpoints))
		}
	}

	empty := Decode("")
	want := &domain.ConfigRecord{LocationName: "unset", CheckInterval: 600000}
	if diff := cmp.Diff(want, empty, equateEmpty); diff != "" {
		t.Errorf("Decode(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_TruncatedFile(t *testing.T) {
	rec := domain.DefaultRecord()
	rec.Endpoints = []string{"http://a"}
	blob := Encode(rec)

	cut := blob[:strings.Index(blob, `"altSSID"`)]
	got := Decode(cut)

	if got.MainPass != rec.MainPass {
		t.Errorf("MainPass = %q, want %q", got.MainPass, rec.MainPass)
	}
	if got.AltSSID != "" || got.DevPass != "" {
		t.Errorf("fields after the cut should be empty, got %q %q", got.AltSSID, got.DevPass)
	}
	if got.CheckInterval != domain.DefaultCheckInterval {
		t.Errorf("CheckInterval = %d, want default", got.CheckInterval)
	}
	if len(got.Endpoints) != 0 {
		t.Errorf("Endpoints = %v, want none", got.Endpoints)
	}

	if got := Decode(`{"locationName":"Kyo`).LocationName; got != "Kyo" {
		t.Errorf("unterminated LocationName = %q, want %q", got, "Kyo")
	}
}

func TestDecode_KnownLimitations(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		got := Decode(`{"mainSSID":"first","mainSSID":"second"}`).MainSSID
		if got != "first" {
			t.Errorf("MainSSID = %q, want %q", got, "first")
		}
	})

	t.Run("exact label match only", func(t *testing.T) {
		r := Decode(`{"LocationName":"x", "networkName" : "y","mainssid":"z"}`)
		if r.LocationName != "unset" || r.NetworkName != "" || r.MainSSID != "" {
			t.Errorf("unexpected match: %+v", r)
		}
	})

	t.Run("escaped label inside a value", func(t *testing.T) {
		r := Decode(`{"locationName":"\"mainSSID\":\"fake","mainSSID":"real"}`)
		if r.MainSSID != "real" {
			t.Errorf("MainSSID = %q, want %q", r.MainSSID, "real")
		}
		if r.LocationName != `"mainSSID":"fake` {
			t.Errorf("LocationName = %q", r.LocationName)
		}
	})

	t.Run("consecutive escaped quotes", func(t *testing.T) {
		got := Decode(`{"devSSID":"\"\"x\"\"","devPass":"p"}`)
		if got.DevSSID != `""x""` || got.DevPass != "p" {
			t.Errorf("DevSSID = %q, DevPass = %q", got.DevSSID, got.DevPass)
		}
	})

	t.Run("trailing backslash mis-terminates", func(t *testing.T) {
		rec := domain.DefaultRecord()
		rec.LocationName = `abc\`

		got := Decode(Encode(rec))
		if got.LocationName != `abc\",` {
			t.Errorf("LocationName = %q, want %q", got.LocationName, `abc\",`)
		}
		if got.NetworkName != rec.NetworkName || got.MainSSID != rec.MainSSID {
			t.Errorf("later fields should still decode: %+v", got)
		}
	})

	t.Run("escaped backslash before n stays literal", func(t *testing.T) {
		// Firmware replaces \\ first and then \n, so it reads a newline here.
		got := Decode(`{"networkName":"a\\nb"}`).NetworkName
		if got != `a\nb` {
			t.Errorf("NetworkName = %q, want %q", got, `a\nb`)
		}
		if firmware := "a\nb"; got == firmware {
			t.Errorf("NetworkName = %q, matches sequential replacement", got)
		}
	})
}

func FuzzDecode(f *testing.F) {
	f.Add(defaultBlob)
	f.Add("")
	f.Add(`{"endpoints":["a\"","b\\"]}`)
	f.Add(`{"checkInterval":-0009}`)

	f.Fuzz(func(t *testing.T, in string) {
		r := Decode(in)
		if r.LocationName == "" {
			t.Fatal("empty LocationName")
		}
		if r.CheckInterval == 0 {
			t.Fatal("zero CheckInterval")
		}
		if len(r.Endpoints) > domain.MaxEndpoints {
			t.Fatalf("%d endpoints", len(r.Endpoints))
		}
		for _, ep := range r.Endpoints {
			if ep == "" {
				t.Fatal("empty endpoint")
			}
		}
	})
}
