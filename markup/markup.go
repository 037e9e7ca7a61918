// CLAUDE:SUMMARY Forward converter: simplified markup dialect → block-comment wire text (single-pass line scanner).
// Package markup converts between a simplified markdown-like dialect and the
// block-comment wire format.
//
// The forward direction (ToBlocks) is a rich single-pass line scanner; the
// reverse direction (FromBlocks) is intentionally approximate and maps only a
// small fixed tag set back toward markup. Round-tripping through both
// directions is not guaranteed to be lossless.
package markup

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	unorderedRe = regexp.MustCompile(`^(\s*)[-*+]\s+(.*)$`)
	orderedRe   = regexp.MustCompile(`^(\s*)\d+[.)]\s+(.*)$`)
	hrRe        = regexp.MustCompile(`^\s*(-{3,}|\*{3,}|_{3,})\s*$`)
	imageRe     = regexp.MustCompile(`^\s*!\[([^\]]*)\]\(([^)\s]+)\)\s*$`)
	tableSepRe  = regexp.MustCompile(`^\s*:?-+:?\s*$`)
)

// scanner accumulates bounded lookahead state for the line pass.
type scanner struct {
	out []string

	inFence   bool
	fenceLang string
	fence     []string

	listItems   []string
	listOrdered bool

	tableRows [][]string
}

// ToBlocks converts markup text to block-comment wire text.
//
// Per-line precedence: fenced-code start/end, table row, blank line, heading,
// list item, blockquote, horizontal rule, standalone image, else paragraph.
// Structural boundaries flush any pending list or table accumulator.
func ToBlocks(text string) string {
	s := &scanner{}
	for _, line := range strings.Split(text, "\n") {
		s.line(line)
	}
	s.flushAll()
	return strings.Join(s.out, "\n\n")
}

func (s *scanner) line(line string) {
	trimmed := strings.TrimSpace(line)

	// Fenced code region: everything is literal until the closing fence.
	if s.inFence {
		if strings.HasPrefix(trimmed, "```") {
			s.emitCode()
			return
		}
		s.fence = append(s.fence, line)
		return
	}
	if strings.HasPrefix(trimmed, "```") {
		s.flushList()
		s.flushTable()
		s.inFence = true
		s.fenceLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		s.fence = nil
		return
	}

	// Table row: any non-blank line containing a cell separator.
	if trimmed != "" && strings.Contains(line, "|") {
		s.flushList()
		s.tableRows = append(s.tableRows, splitCells(line))
		return
	}

	// Blank line flushes pending accumulators.
	if trimmed == "" {
		s.flushList()
		s.flushTable()
		return
	}

	if m := headingRe.FindStringSubmatch(trimmed); m != nil {
		s.flushList()
		s.flushTable()
		level := len(m[1])
		s.emit("core/heading", fmt.Sprintf(`{"level":%d}`, level),
			fmt.Sprintf("<h%d>%s</h%d>", level, Inline(m[2]), level))
		return
	}

	if m := unorderedRe.FindStringSubmatch(line); m != nil {
		s.flushTable()
		s.listItem(false, m[2])
		return
	}
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		s.flushTable()
		s.listItem(true, m[2])
		return
	}

	if strings.HasPrefix(trimmed, ">") {
		s.flushList()
		s.flushTable()
		quoted := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
		s.emit("core/quote", "", "<blockquote><p>"+Inline(quoted)+"</p></blockquote>")
		return
	}

	if hrRe.MatchString(trimmed) {
		s.flushList()
		s.flushTable()
		s.emit("core/separator", "", "<hr/>")
		return
	}

	if m := imageRe.FindStringSubmatch(trimmed); m != nil {
		s.flushList()
		s.flushTable()
		alt, url := m[1], m[2]
		attrs := fmt.Sprintf(`{"alt":%q,"url":%q}`, alt, url)
		s.emit("core/image", attrs,
			fmt.Sprintf(`<img src=%q alt=%q/>`, url, alt))
		return
	}

	s.flushList()
	s.flushTable()
	s.emit("core/paragraph", "", "<p>"+Inline(trimmed)+"</p>")
}

// listItem appends to the pending list, flushing first when the marker style
// switches between ordered and unordered. Indent is tolerated but nested
// lists are not produced.
func (s *scanner) listItem(ordered bool, text string) {
	if len(s.listItems) > 0 && s.listOrdered != ordered {
		s.flushList()
	}
	s.listOrdered = ordered
	s.listItems = append(s.listItems, text)
}

func (s *scanner) flushList() {
	if len(s.listItems) == 0 {
		return
	}
	tag := "ul"
	if s.listOrdered {
		tag = "ol"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<%s>", tag)
	for _, item := range s.listItems {
		sb.WriteString("<li>" + Inline(item) + "</li>")
	}
	fmt.Fprintf(&sb, "</%s>", tag)

	s.emit("core/list", fmt.Sprintf(`{"ordered":%t}`, s.listOrdered), sb.String())
	s.listItems = nil
	s.listOrdered = false
}

func (s *scanner) flushTable() {
	if len(s.tableRows) == 0 {
		return
	}
	rows := s.tableRows
	s.tableRows = nil

	var header []string
	// The second row is a header separator only when every cell matches the
	// dashed/colon pattern; the first row then becomes header cells.
	if len(rows) >= 2 && isSeparatorRow(rows[1]) {
		header = rows[0]
		rows = rows[2:]
	}

	var sb strings.Builder
	sb.WriteString("<table>")
	if header != nil {
		sb.WriteString("<thead><tr>")
		for _, c := range header {
			sb.WriteString("<th>" + Inline(c) + "</th>")
		}
		sb.WriteString("</tr></thead>")
	}
	sb.WriteString("<tbody>")
	for _, row := range rows {
		sb.WriteString("<tr>")
		for _, c := range row {
			sb.WriteString("<td>" + Inline(c) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")

	s.emit("core/table", "", sb.String())
}

func (s *scanner) emitCode() {
	attrs := ""
	if s.fenceLang != "" {
		attrs = fmt.Sprintf(`{"language":%q}`, s.fenceLang)
	}
	code := html.EscapeString(strings.Join(s.fence, "\n"))
	s.emit("core/code", attrs, "<pre><code>"+code+"</code></pre>")
	s.inFence = false
	s.fenceLang = ""
	s.fence = nil
}

func (s *scanner) flushAll() {
	if s.inFence {
		// Unterminated fence: emit what accumulated rather than dropping it.
		s.emitCode()
	}
	s.flushList()
	s.flushTable()
}

func (s *scanner) emit(typ, attrs, content string) {
	marker := typ
	if attrs != "" {
		marker += " " + attrs
	}
	s.out = append(s.out, fmt.Sprintf("<!-- %s -->\n%s\n<!-- /%s -->", marker, content, typ))
}

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !tableSepRe.MatchString(c) {
			return false
		}
	}
	return true
}

func splitCells(line string) []string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
