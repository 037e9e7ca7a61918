// CLAUDE:SUMMARY Inline formatting: HTML-escape then bold/italic/code/link/strikethrough substitutions in fixed order.
package markup

import (
	"html"
	"regexp"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	strikeRe = regexp.MustCompile(`~~(.+?)~~`)
)

// Inline applies inline formatting to a raw text chunk. The chunk is
// HTML-escaped first so literal angle brackets survive without
// double-encoding, then the substitutions run in fixed order: bold, italic,
// inline code, links, strikethrough.
func Inline(text string) string {
	out := html.EscapeString(text)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	out = linkRe.ReplaceAllString(out, `<a href="$2">$1</a>`)
	out = strikeRe.ReplaceAllString(out, "<del>$1</del>")
	return out
}
