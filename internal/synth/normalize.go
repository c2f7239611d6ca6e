package synth

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder stands in for characters the renderer cannot encode.
const Placeholder = "?"

var typographic = map[rune]string{
	// Dashes, hyphens and the minus sign.
	'\u2010': "-",
	'\u2011': "-",
	'\u2012': "-",
	'\u2013': "-",
	'\u2014': "-",
	'\u2015': "-",
	'\u2212': "-",

	// Quotes and primes.
	'\u2018': "'",
	'\u2019': "'",
	'\u201a': "'",
	'\u201b': "'",
	'\u2032': "'",
	'\u201c': `"`,
	'\u201d': `"`,
	'\u201e': `"`,
	'\u201f': `"`,
	'\u2033': `"`,

	// Bullet glyphs.
	'\u2022': "-",
	'\u2023': "-",
	'\u2043': "-",
	'\u25aa': "-",
	'\u25cf': "-",
	'\u25e6': "-",

	'\u2026': "...",

	// Typographic spaces.
	'\u00a0': " ",
	'\u2002': " ",
	'\u2003': " ",
	'\u2009': " ",
	'\u200a': " ",
	'\u202f': " ",
	'\u2007': " ",
	'\u3000': " ",

	// Invisible characters are dropped.
	'\u00ad': "",
	'\u200b': "",
	'\ufeff': "",
}

// Normalize maps text onto the single-byte character set the PDF renderer
// supports. Typographic punctuation becomes its ASCII form, accented
// letters outside Latin-1 lose their accents, and anything else becomes
// Placeholder. Normalizing its own output returns it unchanged.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if repl, ok := typographic[r]; ok {
			b.WriteString(repl)
			continue
		}
		if encodable(r) {
			b.WriteRune(r)
			continue
		}
		if base := stripAccents(string(r)); base != "" && allEncodable(base) {
			b.WriteString(base)
			continue
		}
		b.WriteString(Placeholder)
	}
	return b.String()
}

// encodable reports whether r prints in ISO-8859-1.
func encodable(r rune) bool {
	if r == '\n' || r == '\t' {
		return true
	}
	if _, ok := charmap.ISO8859_1.EncodeRune(r); !ok {
		return false
	}
	return unicode.IsPrint(r)
}

func allEncodable(s string) bool {
	for _, r := range s {
		if !encodable(r) {
			return false
		}
	}
	return true
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return result
}
