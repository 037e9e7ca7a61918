// CLAUDE:SUMMARY Staged per-block validation (structure, type, schema, content, balance, formats) and document context rules.
// Package validate checks blocks against their registered schemas and
// cross-block structural rules.
//
// Diagnostics are advisory strings; the session layer decides whether they
// warn or block. Checks run in stages per block: structural, type
// membership, attribute schema, content presence, markup balance, inline
// format support. A missing type aborts the remaining stages for that block.
package validate

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/plume/block"
	"github.com/hazyhaar/plume/schema"
)

// WarningPrefix marks diagnostics that do not affect overall validity.
const WarningPrefix = "warning: "

// Validator checks blocks against a schema registry.
type Validator struct {
	reg *schema.Registry
}

// New creates a Validator. A nil registry falls back to the default.
func New(reg *schema.Registry) *Validator {
	if reg == nil {
		reg = schema.DefaultRegistry()
	}
	return &Validator{reg: reg}
}

// Block validates a single block and returns its diagnostics in stage order.
func (v *Validator) Block(b *block.Block) []string {
	var diags []string

	// Stage 1: structural. A block without a type cannot be checked further.
	if b.Type == "" {
		return append(diags, "block has no type")
	}
	if b.ID == "" {
		diags = append(diags, WarningPrefix+"block has no id")
	}

	// Stage 2: type membership.
	typ, registered := v.reg.Lookup(b.Type)
	if !registered && !v.reg.Known(b.Type) {
		msg := fmt.Sprintf("unknown block type %q", b.Type)
		if s := v.reg.Suggest(b.Type); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		diags = append(diags, msg)
	}

	if typ != nil {
		// Stage 3: attribute schema.
		diags = append(diags, v.checkAttrs(typ, b)...)

		// Stage 4: content presence.
		if typ.RequiresContent && strings.TrimSpace(b.Content) == "" {
			diags = append(diags, fmt.Sprintf("%s blocks require non-empty content", b.Type))
		}
	}

	// Stage 5: markup balance.
	diags = append(diags, checkBalance(b.Content)...)

	// Stage 6: inline format support.
	if typ != nil {
		diags = append(diags, checkFormats(typ, b.Content)...)
	}

	return diags
}

func (v *Validator) checkAttrs(typ *schema.Type, b *block.Block) []string {
	var diags []string
	for name, attr := range typ.Attributes {
		val, present := b.Attributes[name]
		if !present {
			if attr.Required {
				diags = append(diags, fmt.Sprintf("missing required attribute %q", name))
			}
			continue
		}
		if !kindMatches(attr.Kind, val) {
			diags = append(diags, fmt.Sprintf("attribute %q must be a %s", name, attr.Kind))
			continue
		}
		if len(attr.Enum) > 0 {
			if s, ok := val.(string); ok && !contains(attr.Enum, s) {
				diags = append(diags, fmt.Sprintf("attribute %q must be one of %s", name, strings.Join(attr.Enum, ", ")))
			}
		}
		if attr.Min != nil || attr.Max != nil {
			if n, ok := asNumber(val); ok {
				if attr.Min != nil && attr.Max != nil && (n < *attr.Min || n > *attr.Max) {
					diags = append(diags, fmt.Sprintf("attribute %q must be between %g and %g", name, *attr.Min, *attr.Max))
				} else if attr.Min != nil && attr.Max == nil && n < *attr.Min {
					diags = append(diags, fmt.Sprintf("attribute %q must be at least %g", name, *attr.Min))
				} else if attr.Max != nil && attr.Min == nil && n > *attr.Max {
					diags = append(diags, fmt.Sprintf("attribute %q must be at most %g", name, *attr.Max))
				}
			}
		}
	}
	return diags
}

func kindMatches(k schema.Kind, v any) bool {
	switch k {
	case schema.KindString:
		_, ok := v.(string)
		return ok
	case schema.KindBoolean:
		_, ok := v.(bool)
		return ok
	case schema.KindInteger:
		n, ok := asNumber(v)
		return ok && n == float64(int64(n))
	case schema.KindNumber:
		_, ok := asNumber(v)
		return ok
	}
	return true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// inlineMarkers lists the fixed inline format set in a stable order, with
// the content tags that signal each format.
var inlineMarkers = []struct {
	format  string
	markers []string
}{
	{schema.FormatBold, []string{"<strong>", "<b>"}},
	{schema.FormatItalic, []string{"<em>", "<i>"}},
	{schema.FormatLink, []string{"<a "}},
	{schema.FormatCode, []string{"<code>"}},
	{schema.FormatStrikethrough, []string{"<del>", "<s>"}},
	{schema.FormatSubscript, []string{"<sub>"}},
	{schema.FormatSuperscript, []string{"<sup>"}},
}

func checkFormats(typ *schema.Type, content string) []string {
	var diags []string
	for _, entry := range inlineMarkers {
		if typ.SupportsFormat(entry.format) {
			continue
		}
		for _, m := range entry.markers {
			if strings.Contains(content, m) {
				diags = append(diags, fmt.Sprintf("%s does not support %s formatting", typ.Name, entry.format))
				break
			}
		}
	}
	return diags
}
