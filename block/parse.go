// CLAUDE:SUMMARY Fail-fast wire-format parser: comment-delimited markers → ordered block list.
package block

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/plume/idgen"
)

// typeRe matches a namespaced block type such as "core/paragraph".
// A comment whose first token does not match is an ordinary HTML comment and
// is skipped, not parsed.
var typeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*/[a-zA-Z][a-zA-Z0-9_-]*$`)

// Parser converts wire-format text into an ordered block list.
type Parser struct {
	newID idgen.Generator
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithIDGenerator sets the generator used for block ids.
func WithIDGenerator(gen idgen.Generator) ParserOption {
	return func(p *Parser) { p.newID = gen }
}

// NewParser creates a Parser. Block ids default to "blk_" + NanoID(10).
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{newID: idgen.Prefixed("blk_", idgen.NanoID(10))}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse scans text for comment-delimited blocks and returns them in document
// order. Positions are assigned 0..N-1 and both hashes are computed
// immediately, so the result can serve directly as a session baseline.
//
// The parse is fail-fast: malformed attribute JSON or an unterminated open
// marker aborts the whole parse with ErrParse. There is no per-block recovery.
//
// A block nested inside another block of the same type is not supported: the
// first matching close marker terminates the outer block.
func (p *Parser) Parse(text string) (List, error) {
	var blocks List
	pos := 0

	for i := 0; i < len(text); {
		open := strings.Index(text[i:], "<!--")
		if open < 0 {
			break
		}
		open += i
		end := strings.Index(text[open:], "-->")
		if end < 0 {
			// A dangling "<!--" with no terminator is not a block marker.
			break
		}
		end += open
		body := strings.TrimSpace(text[open+4 : end])

		typ, attrText, ok := splitMarker(body)
		if !ok {
			// Plain HTML comment or a stray close marker.
			i = end + 3
			continue
		}

		attrs := map[string]any{}
		if attrText != "" {
			if err := json.Unmarshal([]byte(attrText), &attrs); err != nil {
				return nil, fmt.Errorf("%w: block %d (%s): invalid attributes JSON: %v", ErrParse, pos, typ, err)
			}
		}

		contentStart := end + 3
		closeStart, closeEnd := findClose(text, contentStart, typ)
		if closeStart < 0 {
			return nil, fmt.Errorf("%w: block %d (%s): missing close marker", ErrParse, pos, typ)
		}

		content := strings.Trim(text[contentStart:closeStart], "\r\n")
		b := &Block{
			ID:         p.newID(),
			Type:       typ,
			Attributes: attrs,
			Content:    content,
			Position:   pos,
		}
		b.Rehash()
		b.OriginalHash = b.ContentHash
		blocks = append(blocks, b)

		pos++
		i = closeEnd
	}

	return blocks, nil
}

// Parse is the package-level convenience using a default Parser.
func Parse(text string) (List, error) {
	return NewParser().Parse(text)
}

// IsBlockText reports whether text contains at least one open block marker.
// Used to decide between parsing directly and converting from markup first.
func IsBlockText(text string) bool {
	for i := 0; i < len(text); {
		open := strings.Index(text[i:], "<!--")
		if open < 0 {
			return false
		}
		open += i
		end := strings.Index(text[open:], "-->")
		if end < 0 {
			return false
		}
		end += open
		if _, _, ok := splitMarker(strings.TrimSpace(text[open+4 : end])); ok {
			return true
		}
		i = end + 3
	}
	return false
}

// splitMarker splits a comment body into type and optional attribute JSON.
// Returns ok=false when the body is not an open block marker.
func splitMarker(body string) (typ, attrs string, ok bool) {
	if body == "" || strings.HasPrefix(body, "/") {
		return "", "", false
	}
	typ = body
	if sp := strings.IndexAny(body, " \t"); sp >= 0 {
		typ = body[:sp]
		attrs = strings.TrimSpace(body[sp+1:])
	}
	if !typeRe.MatchString(typ) {
		return "", "", false
	}
	if attrs != "" && !strings.HasPrefix(attrs, "{") {
		return "", "", false
	}
	return typ, attrs, true
}

// findClose locates the first close marker of the given type at or after
// offset. Returns the marker's start offset and the offset just past it, or
// (-1, -1) when no close marker exists.
func findClose(text string, offset int, typ string) (int, int) {
	for i := offset; i < len(text); {
		open := strings.Index(text[i:], "<!--")
		if open < 0 {
			return -1, -1
		}
		open += i
		end := strings.Index(text[open:], "-->")
		if end < 0 {
			return -1, -1
		}
		end += open
		body := strings.TrimSpace(text[open+4 : end])
		if body == "/"+typ {
			return open, end + 3
		}
		i = end + 3
	}
	return -1, -1
}
