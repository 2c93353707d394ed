package codec

import (
	"math"
	"strings"

	"github.com/yndnr/aranea-go/internal/core/domain"
)

// Keys of the settings file, in emission order.
const (
	keyLocationName  = "locationName"
	keyNetworkName   = "networkName"
	keyMainSSID      = "mainSSID"
	keyMainPass      = "mainPass"
	keyAltSSID       = "altSSID"
	keyAltPass       = "altPass"
	keyDevSSID       = "devSSID"
	keyDevPass       = "devPass"
	keyCheckInterval = "checkInterval"
	keyEndpoints     = "endpoints"
)

// Decode parses text into a fresh record. It never fails: a field that is
// missing or malformed gets its default, independently of the others.
func Decode(text string) *domain.ConfigRecord {
	s := scanner{src: text}

	r := &domain.ConfigRecord{
		LocationName:  s.stringField(keyLocationName),
		NetworkName:   s.stringField(keyNetworkName),
		MainSSID:      s.stringField(keyMainSSID),
		MainPass:      s.stringField(keyMainPass),
		AltSSID:       s.stringField(keyAltSSID),
		AltPass:       s.stringField(keyAltPass),
		DevSSID:       s.stringField(keyDevSSID),
		DevPass:       s.stringField(keyDevPass),
		CheckInterval: s.intervalField(keyCheckInterval),
		Endpoints:     s.endpoints(),
	}
	if r.LocationName == "" {
		r.LocationName = domain.UnsetLocation
	}
	return r
}

// scanner looks up the fixed keys by literal substring match.
type scanner struct {
	src string
}

// after returns the index just past the first occurrence of label, or -1.
func (s scanner) after(label string) int {
	i := strings.Index(s.src, label)
	if i < 0 {
		return -1
	}
	return i + len(label)
}

// stringField returns the unescaped value of "key":"...", or "" when the
// label is absent. An unterminated value runs to the end of the text.
func (s scanner) stringField(key string) string {
	start := s.after(`"` + key + `":"`)
	if start < 0 {
		return ""
	}
	end := closingQuote(s.src, start)
	return unescapeScalar(s.src[start:end])
}

// intervalField returns the positive integer after "key":, or the default
// interval when it is absent, non-positive or does not fit in 32 bits.
func (s scanner) intervalField(key string) uint32 {
	start := s.after(`"` + key + `":`)
	if start < 0 {
		return domain.DefaultCheckInterval
	}

	end := start
	for end < len(s.src) && (isDigit(s.src[end]) || s.src[end] == '-') {
		end++
	}

	n := toInt(s.src[start:end])
	if n <= 0 || n > math.MaxUint32 {
		return domain.DefaultCheckInterval
	}
	return uint32(n)
}

// endpoints returns up to MaxEndpoints non-empty strings from the array
// after "endpoints":[. The array ends at the first ']' in the text.
func (s scanner) endpoints() []string {
	out := []string{}

	start := s.after(`"` + keyEndpoints + `":[`)
	if start < 0 {
		return out
	}
	n := strings.IndexByte(s.src[start:], ']')
	if n <= 0 {
		return out
	}
	region := s.src[start : start+n]

	pos := 0
	for pos < len(region) && len(out) < domain.MaxEndpoints {
		q := strings.IndexByte(region[pos:], '"')
		if q < 0 {
			break
		}
		open := pos + q
		end := closingQuote(region, open+1)
		if end > open+1 {
			if ep := unescapeEndpoint(region[open+1 : end]); ep != "" {
				out = append(out, ep)
			}
		}
		pos = end + 1
	}
	return out
}

// closingQuote returns the index of the first '"' at or after from that is
// not directly preceded by a backslash, or len(src) if there is none.
// from must be at least 1.
func closingQuote(src string, from int) int {
	for i := from; i < len(src); i++ {
		if src[i] == '"' && src[i-1] != '\\' {
			return i
		}
	}
	return len(src)
}

// toInt reads an optional '-' followed by decimal digits and stops at the
// first other byte. Anything unparsable is 0. Values beyond 32 bits stop
// accumulating early; callers reject them.
func toInt(s string) int64 {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var n int64
	for i := 0; i < len(s) && isDigit(s[i]); i++ {
		if n > math.MaxUint32 {
			break
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

var (
	scalarEscapes = map[byte]byte{
		'"':  '"',
		'\\': '\\',
		'n':  '\n',
		'r':  '\r',
		't':  '\t',
	}
	endpointEscapes = map[byte]byte{
		'"':  '"',
		'\\': '\\',
	}
)

func unescapeScalar(s string) string {
	return unescape(s, scalarEscapes)
}

func unescapeEndpoint(s string) string {
	return unescape(s, endpointEscapes)
}

// unescape resolves the two-byte sequences in table in a single left to
// right pass. Unknown sequences are kept verbatim.
func unescape(s string, table map[byte]byte) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			if r, ok := table[s[i+1]]; ok {
				b.WriteByte(r)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
