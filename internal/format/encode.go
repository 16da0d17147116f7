package format

import (
	"net/url"
	"strings"
)

// doubleEncoder protects characters that the wiki would otherwise decode a
// second time. "%" must be rewritten before the others so their own escapes survive.
var doubleEncoder = strings.NewReplacer(
	"%", "%25",
	"+", "%2b",
	"&", "%26",
	"?", "%3f",
)

// Correct re-escapes %, +, & and ? so a value embedded in a query string
// survives the extra decoding pass done by MediaWiki. It is the identity on
// strings that contain none of those characters.
func Correct(s string) string {
	return doubleEncoder.Replace(s)
}

var delimEncoder = strings.NewReplacer(
	"+", "%2b",
	"&", "%26",
	"?", "%3f",
)

// CorrectDelims is Correct without the "%" step. It is applied to raw event
// dumps, which are not percent-encoded to begin with.
func CorrectDelims(s string) string {
	return delimEncoder.Replace(s)
}

// EncodeTitle percent-encodes a page title for use as the title= query value
// and then applies Correct.
func EncodeTitle(title string) string {
	return Correct(queryEncode(title))
}

// PagePath encodes a title for a /wiki/<title> article path. Besides the
// query set it escapes %, & and ?, which would otherwise end the path or
// be decoded by the wiki.
func PagePath(title string) string {
	return percentEncode(strings.ReplaceAll(title, " ", "_"), func(c byte) bool {
		return inQuerySet(c) || c == '%' || c == '&' || c == '?'
	})
}

// queryEncode escapes the WHATWG query percent-encode set: C0 controls, space,
// ", #, <, > and every byte outside printable ASCII. Unlike url.QueryEscape it
// leaves &, + and / alone, which is what MediaWiki expects before Correct runs.
func queryEncode(s string) string {
	return percentEncode(s, inQuerySet)
}

func inQuerySet(c byte) bool {
	return c <= 0x20 || c >= 0x7F || c == '"' || c == '#' || c == '<' || c == '>'
}

func percentEncode(s string, escape func(byte) bool) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escape(c) {
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0F])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Decode percent-decodes s. Invalid input is returned unchanged.
func Decode(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
