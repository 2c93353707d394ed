package codec

import (
	"strconv"
	"strings"

	"github.com/yndnr/aranea-go/internal/core/domain"
)

// Encode renders r in the settings file format. It cannot fail.
func Encode(r *domain.ConfigRecord) string {
	var b strings.Builder
	b.Grow(256)

	b.WriteByte('{')
	writeString(&b, keyLocationName, r.LocationName)
	writeString(&b, keyNetworkName, r.NetworkName)
	writeString(&b, keyMainSSID, r.MainSSID)
	writeString(&b, keyMainPass, r.MainPass)
	writeString(&b, keyAltSSID, r.AltSSID)
	writeString(&b, keyAltPass, r.AltPass)
	writeString(&b, keyDevSSID, r.DevSSID)
	writeString(&b, keyDevPass, r.DevPass)

	b.WriteString(`"` + keyCheckInterval + `":`)
	b.WriteString(strconv.FormatUint(uint64(r.CheckInterval), 10))
	b.WriteByte(',')

	b.WriteString(`"` + keyEndpoints + `":[`)
	for i, ep := range r.Endpoints {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(escape(ep))
		b.WriteByte('"')
	}
	b.WriteString("]}")

	return b.String()
}

// writeString writes `"key":"value",`.
func writeString(b *strings.Builder, key, value string) {
	b.WriteString(`"` + key + `":"`)
	b.WriteString(escape(value))
	b.WriteString(`",`)
}

// escape replaces \ " LF CR TAB with their two-byte escapes. Every other byte
// passes through, including other control bytes and UTF-8 sequences.
func escape(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
