package format

import (
	"fmt"
	"html"
	"strings"
)

// M is markup that is safe to send in the dialect that produced it.
// Values of type M should be treated as already-escaped.
type M string

func (m M) String() string { return string(m) }

// Dialect renders text for one Telegram parse mode.
//
// Every user-controlled string must pass through Esc, Bold, Italic or Link
// before it reaches a message; Printf escapes its layout and only accepts M
// arguments, so literal template text is covered too.
type Dialect interface {
	Name() string
	// ParseMode is the Bot API parse_mode value ("" for plain text).
	ParseMode() string
	Esc(s string) M
	Bold(s string) M
	Italic(s string) M
	Link(text, url string) M
	// EscURL escapes a URL for embedding in a link target.
	EscURL(url string) string
	// RawURL reverses EscURL.
	RawURL(s string) string
}

// Printf formats layout with pre-rendered fragments. The layout itself is
// escaped for d, so it must not contain markup of its own.
func Printf(d Dialect, layout string, args ...M) M {
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = string(a)
	}
	return M(fmt.Sprintf(string(d.Esc(layout)), vals...))
}

// Join concatenates fragments, skipping empty ones.
func Join(sep M, parts ...M) M {
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		ss = append(ss, string(p))
	}
	return M(strings.Join(ss, string(sep)))
}

const (
	DialectHTML     = "html"
	DialectMarkdown = "markdown"
	DialectPlain    = "plain"
)

// ParseDialect maps a config value to a dialect. Empty means HTML.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DialectHTML:
		return HTML{}, nil
	case DialectMarkdown, "md":
		return Markdown{}, nil
	case DialectPlain, "text", "none":
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unknown parse mode %q (use html, markdown or plain)", name)
	}
}

// HTML is Telegram's rich-markup mode.
type HTML struct{}

func (HTML) Name() string      { return DialectHTML }
func (HTML) ParseMode() string { return "HTML" }

// Esc escapes &, < and >. Telegram's HTML parser rejects anything that looks
// like an unknown tag, e.g. git author strings like "<foo@bar.com>".
func (HTML) Esc(s string) M         { return M(htmlEscaper.Replace(s)) }
func (h HTML) Bold(s string) M      { return "<b>" + h.Esc(s) + "</b>" }
func (h HTML) Italic(s string) M    { return "<i>" + h.Esc(s) + "</i>" }
func (HTML) EscURL(u string) string { return html.EscapeString(safeURL(u)) }
func (HTML) RawURL(s string) string { return html.UnescapeString(s) }

func (h HTML) Link(text, url string) M {
	return M(fmt.Sprintf(`<a href="%s">%s</a>`, h.EscURL(url), h.Esc(text)))
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Markdown is Telegram's legacy lightweight markup mode.
type Markdown struct{}

var mdEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func (Markdown) Name() string      { return DialectMarkdown }
func (Markdown) ParseMode() string { return "Markdown" }
func (Markdown) Esc(s string) M    { return M(mdEscaper.Replace(s)) }

// Entities cannot nest in legacy Markdown, so styled text drops inner markup characters.
func (Markdown) Bold(s string) M   { return M("*" + stripMD(s) + "*") }
func (Markdown) Italic(s string) M { return M("_" + stripMD(s) + "_") }

func (m Markdown) Link(text, url string) M {
	return M("[" + strings.NewReplacer("[", "(", "]", ")").Replace(stripMD(text)) + "](" + m.EscURL(url) + ")")
}

func (Markdown) EscURL(u string) string { return safeURL(u) }
func (Markdown) RawURL(s string) string { return s }

func stripMD(s string) string {
	return strings.NewReplacer("*", "", "_", "", "`", "").Replace(s)
}

// Plain sends text without a parse mode; links are rendered inline.
type Plain struct{}

func (Plain) Name() string           { return DialectPlain }
func (Plain) ParseMode() string      { return "" }
func (Plain) Esc(s string) M         { return M(s) }
func (Plain) Bold(s string) M        { return M(s) }
func (Plain) Italic(s string) M      { return M(s) }
func (Plain) EscURL(u string) string { return safeURL(u) }
func (Plain) RawURL(s string) string { return s }

func (p Plain) Link(text, url string) M {
	if url == "" {
		return M(text)
	}
	return M(text + " (" + p.EscURL(url) + ")")
}

// safeURL percent-encodes characters that would terminate a URL early in one
// of the dialects (whitespace, quotes, brackets and parentheses).
func safeURL(u string) string {
	return urlDelims.Replace(u)
}

var urlDelims = strings.NewReplacer(
	" ", "%20",
	`"`, "%22",
	"'", "%27",
	"(", "%28",
	")", "%29",
	"<", "%3C",
	">", "%3E",
	"[", "%5B",
	"]", "%5D",
)
