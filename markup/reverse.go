// CLAUDE:SUMMARY Lossy reverse converter: block-comment wire text → approximate markup.
package markup

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	markerRe   = regexp.MustCompile(`<!--\s*/?[a-zA-Z][a-zA-Z0-9_-]*/[a-zA-Z][a-zA-Z0-9_-]*(\s+\{.*?\})?\s*-->\n?`)
	hxRe       = regexp.MustCompile(`(?s)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	pRe        = regexp.MustCompile(`(?s)<p[^>]*>(.*?)</p>`)
	strongRe   = regexp.MustCompile(`(?s)<(?:strong|b)>(.*?)</(?:strong|b)>`)
	emRe       = regexp.MustCompile(`(?s)<(?:em|i)>(.*?)</(?:em|i)>`)
	codeTagRe  = regexp.MustCompile(`(?s)<code>(.*?)</code>`)
	anchorRe   = regexp.MustCompile(`(?s)<a\s+href="([^"]*)"[^>]*>(.*?)</a>`)
	hrTagRe    = regexp.MustCompile(`<hr\s*/?>`)
	multiNLRe  = regexp.MustCompile(`\n{3,}`)
)

// FromBlocks converts block-comment wire text toward the markup dialect.
//
// The mapping is partial: comment markers are stripped and only headings,
// paragraphs, bold, italic, code, links and horizontal rules map back; any
// other tag passes through unmodified. Round trips do not preserve ids,
// attributes or unmapped tags.
func FromBlocks(text string) string {
	out := markerRe.ReplaceAllString(text, "")

	out = hxRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := hxRe.FindStringSubmatch(m)
		level := int(sub[1][0] - '0')
		return strings.Repeat("#", level) + " " + strings.TrimSpace(sub[2])
	})
	out = pRe.ReplaceAllString(out, "$1")
	out = strongRe.ReplaceAllString(out, "**$1**")
	out = emRe.ReplaceAllString(out, "*$1*")
	out = codeTagRe.ReplaceAllString(out, "`$1`")
	out = anchorRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := anchorRe.FindStringSubmatch(m)
		return fmt.Sprintf("[%s](%s)", sub[2], sub[1])
	})
	out = hrTagRe.ReplaceAllString(out, "---")

	out = html.UnescapeString(out)
	out = multiNLRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
