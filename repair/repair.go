// CLAUDE:SUMMARY Best-effort block auto-fixer: per-type repair handlers, id backfill, all-paragraphs last resort.
// Package repair normalizes near-valid blocks before persistence.
//
// The fixer never fails: it prefers emitting slightly-wrong-but-present
// content over aborting a sync. Handlers dispatch through a type-keyed table
// so new block types can register repairs without editing a central
// conditional.
package repair

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/plume/block"
	"github.com/hazyhaar/plume/idgen"
	"github.com/hazyhaar/plume/schema"
)

// headingTagRe matches content already wrapped in an <h1>..<h6> tag.
// A bare prefix check would also accept <hr/> and <html>.
var headingTagRe = regexp.MustCompile(`^<h[1-6][\s>]`)

// Fix records one repair applied to one block.
type Fix struct {
	BlockID     string `json:"block_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Result is the outcome of a fixer pass.
type Result struct {
	Blocks block.List `json:"blocks"`
	Fixes  []Fix      `json:"fixes"`
	Count  int        `json:"fix_count"`
}

// Handler repairs one block in place and returns descriptions of what it did.
type Handler func(f *Fixer, b *block.Block) []string

// Fixer applies per-type repairs to a block list.
type Fixer struct {
	reg      *schema.Registry
	newID    idgen.Generator
	handlers map[string]Handler
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithIDGenerator sets the generator used to backfill missing block ids.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(f *Fixer) { f.newID = gen }
}

// New creates a Fixer with the built-in core handlers registered.
func New(reg *schema.Registry, opts ...Option) *Fixer {
	if reg == nil {
		reg = schema.DefaultRegistry()
	}
	f := &Fixer{
		reg:   reg,
		newID: idgen.Prefixed("blk_", idgen.NanoID(10)),
		handlers: map[string]Handler{
			"core/heading":   fixHeading,
			"core/list":      fixList,
			"core/image":     fixImage,
			"core/paragraph": fixParagraph,
		},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Register adds or replaces the repair handler for a type.
func (f *Fixer) Register(typ string, h Handler) {
	f.handlers[typ] = h
}

// Fix repairs blocks in place and returns the repaired list with a record of
// every fix applied. It never returns an error; callers always get a usable
// block list back.
func (f *Fixer) Fix(blocks block.List) *Result {
	res := &Result{Blocks: blocks}

	for _, b := range blocks {
		var applied []string

		if b.ID == "" {
			b.ID = f.newID()
			applied = append(applied, "generated missing id")
		}

		if h, ok := f.handlers[b.Type]; ok {
			applied = append(applied, h(f, b)...)
		} else {
			applied = append(applied, fixGeneric(f, b)...)
		}

		if len(applied) > 0 {
			b.Rehash()
			for _, d := range applied {
				res.Fixes = append(res.Fixes, Fix{BlockID: b.ID, Type: b.Type, Description: d})
			}
		}
	}

	blocks.Renumber()
	res.Count = len(res.Fixes)
	return res
}

// LastResort converts every block into a plain paragraph holding its
// original content, or an "[empty block]" placeholder. Applied by the
// session when serialization still fails after a fixer pass; losing block
// structure beats losing the content.
func (f *Fixer) LastResort(blocks block.List) block.List {
	out := make(block.List, len(blocks))
	for i, b := range blocks {
		content := strings.TrimSpace(b.Content)
		if content == "" {
			content = "[empty block]"
		}
		if !strings.HasPrefix(content, "<p>") {
			content = "<p>" + content + "</p>"
		}
		id := b.ID
		if id == "" {
			id = f.newID()
		}
		nb := &block.Block{
			ID:           id,
			Type:         "core/paragraph",
			Attributes:   map[string]any{},
			Content:      content,
			Position:     i,
			OriginalHash: b.OriginalHash,
		}
		nb.Rehash()
		out[i] = nb
	}
	return out
}

// --- built-in handlers ---

func fixHeading(_ *Fixer, b *block.Block) []string {
	var applied []string

	level := 3
	if v, ok := b.Attributes["level"]; ok {
		if n, ok := asInt(v); ok {
			level = n
		} else {
			applied = append(applied, fmt.Sprintf("replaced invalid level %v with 3", v))
		}
	} else {
		applied = append(applied, "defaulted missing level to 3")
	}
	if level < 1 {
		applied = append(applied, fmt.Sprintf("clamped level %d to 1", level))
		level = 1
	} else if level > 6 {
		applied = append(applied, fmt.Sprintf("clamped level %d to 6", level))
		level = 6
	}
	if b.Attributes == nil {
		b.Attributes = map[string]any{}
	}
	b.Attributes["level"] = level

	content := strings.TrimSpace(b.Content)
	if content != "" && !headingTagRe.MatchString(content) {
		b.Content = fmt.Sprintf("<h%d>%s</h%d>", level, content, level)
		applied = append(applied, "wrapped bare text in heading tag")
	}
	return applied
}

func fixList(_ *Fixer, b *block.Block) []string {
	var applied []string

	ordered := false
	if v, ok := b.Attributes["ordered"]; ok {
		coerced, changed := asBool(v)
		ordered = coerced
		if changed {
			applied = append(applied, fmt.Sprintf("coerced ordered from %v to %t", v, coerced))
		}
	}
	if b.Attributes == nil {
		b.Attributes = map[string]any{}
	}
	b.Attributes["ordered"] = ordered

	content := strings.TrimSpace(b.Content)
	if content != "" && !strings.Contains(content, "<li") {
		tag := "ul"
		if ordered {
			tag = "ol"
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "<%s>", tag)
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			sb.WriteString("<li>" + line + "</li>")
		}
		fmt.Fprintf(&sb, "</%s>", tag)
		b.Content = sb.String()
		applied = append(applied, "synthesized list item markup from lines")
	}
	return applied
}

func fixImage(_ *Fixer, b *block.Block) []string {
	url, _ := b.Attributes["url"].(string)
	if strings.TrimSpace(url) != "" {
		return nil
	}

	// No resolvable URL: demote to a paragraph rather than sync a broken
	// image. The description survives in the placeholder.
	alt, _ := b.Attributes["alt"].(string)
	placeholder := "[image removed: no URL]"
	if strings.TrimSpace(alt) != "" {
		placeholder = fmt.Sprintf("[image removed: %s]", alt)
	}
	b.Type = "core/paragraph"
	b.Content = "<p>" + placeholder + "</p>"
	delete(b.Attributes, "url")
	delete(b.Attributes, "alt")
	return []string{"demoted image without URL to paragraph"}
}

func fixParagraph(_ *Fixer, b *block.Block) []string {
	content := strings.TrimSpace(b.Content)
	if content == "" || strings.HasPrefix(content, "<p") {
		return nil
	}
	b.Content = "<p>" + content + "</p>"
	return []string{"wrapped bare text in paragraph tag"}
}

// fixGeneric handles unrecognized types: bare text gets a minimal container.
func fixGeneric(_ *Fixer, b *block.Block) []string {
	content := strings.TrimSpace(b.Content)
	if content == "" || strings.HasPrefix(content, "<") {
		return nil
	}
	b.Content = "<div>" + content + "</div>"
	return []string{"wrapped bare text in generic container"}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// asBool coerces any truthy/falsy value to bool. The second return reports
// whether the value had to be coerced from a non-bool type.
func asBool(v any) (value, coerced bool) {
	switch t := v.(type) {
	case bool:
		return t, false
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes", true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case nil:
		return false, true
	default:
		return false, true
	}
}
