// Package codec reads and writes the settings file format.
//
// The format is a fixed-shape, JSON-looking object: eight string fields,
// one integer, then an endpoints array, in that order and without
// whitespace:
//
//	{"locationName":"unset","networkName":"",...,"checkInterval":600000,"endpoints":["http://a"]}
//
// It is not general JSON. Encode escapes only backslash, double quote,
// newline, carriage return and tab. Decode is a scanner over the fixed key
// set that never fails: each field falls back to its default when it cannot
// be found or parsed, so a truncated or foreign file still yields a usable
// record.
//
// Quirks of files already on devices are kept as-is: the first occurrence of
// a key wins, a closing quote is any quote whose previous byte is not a
// backslash, endpoint elements only unescape \" and \\, and the endpoint
// array ends at the first ']'.
package codec
