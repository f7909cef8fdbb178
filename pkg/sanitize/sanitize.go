// Package sanitize restricts outbound text to the ASCII range accepted by the
// commerce platform transport.
package sanitize

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func converts arbitrary text into an ASCII-safe string.
type Func func(string) string

// Replacement is written in place of characters that have no ASCII equivalent.
const Replacement = '?'

var transliterations = map[rune]string{
	'ß': "ss", 'ẞ': "SS",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'ø': "o", 'Ø': "O",
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "Th",
	'ı': "i",
	'‘': "'", '’': "'", '‚': "'", '′': "'",
	'“': `"`, '”': `"`, '„': `"`, '″': `"`,
	'«': `"`, '»': `"`,
	'–': "-", '—': "-", '‐': "-", '−': "-",
	'…': "...",
	'•': "*", '·': ".",
	'×': "x",
	'€': "EUR", '£': "GBP", '¥': "JPY",
	'\u00a0': " ", '\u2009': " ", '\u202f': " ",
	'\u200b': "", '\ufeff': "",
}

// ASCII is the default Func: it decomposes accented letters, drops combining marks,
// maps common typographic characters and replaces everything else with '?'.
func ASCII(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if rep, ok := transliterations[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(Replacement)
	}
	return b.String()
}

// Walk applies fn to every string in a decoded JSON value, keys included.
func Walk(v any, fn Func) any {
	switch t := v.(type) {
	case string:
		return fn(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fn(k)] = Walk(val, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Walk(val, fn)
		}
		return out
	default:
		return v
	}
}

var unicodeEscape = regexp.MustCompile(`(\\+)u([0-9a-fA-F]{4})`)

// Payload is the final pass over a serialized JSON document. It replaces \uXXXX
// escapes that decode outside the ASCII range and any raw non-ASCII byte sequence.
func Payload(b []byte) []byte {
	out := unicodeEscape.ReplaceAllFunc(b, func(m []byte) []byte {
		slashes := bytes.IndexByte(m, 'u')
		// an even run of backslashes is an escaped backslash followed by literal text
		if slashes%2 == 0 {
			return m
		}
		v, err := strconv.ParseUint(string(m[slashes+1:]), 16, 32)
		if err != nil || v < utf8.RuneSelf {
			return m
		}
		rep := make([]byte, 0, slashes)
		rep = append(rep, m[:slashes-1]...)
		return append(rep, Replacement)
	})
	if isASCII(string(out)) {
		return out
	}

	buf := make([]byte, 0, len(out))
	for len(out) > 0 {
		r, size := utf8.DecodeRune(out)
		if r < utf8.RuneSelf && size == 1 {
			buf = append(buf, out[0])
		} else {
			buf = append(buf, Replacement)
		}
		out = out[size:]
	}
	return buf
}

// Header trims and restricts a header value to printable ASCII.
func Header(v string) string {
	v = strings.TrimSpace(v)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, v)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
