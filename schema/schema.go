// CLAUDE:SUMMARY Block type registry: per-type attribute schemas, supported inline formats, namespaces.
// Package schema is the block type registry.
//
// Validation and repair dispatch through this table instead of switching on
// type names, so new block types register without editing a central
// conditional. The registry is resolved once at startup and read-only after.
package schema

import "strings"

// Kind is the primitive type an attribute value must satisfy.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// Attr describes one attribute in a block type's schema. Unknown attributes
// are always permitted; the schema only constrains the declared ones.
type Attr struct {
	Kind     Kind
	Required bool
	Enum     []string
	Min      *float64
	Max      *float64
}

// Inline format markers a block type may whitelist.
const (
	FormatBold          = "bold"
	FormatItalic        = "italic"
	FormatLink          = "link"
	FormatCode          = "code"
	FormatStrikethrough = "strikethrough"
	FormatSubscript     = "sub"
	FormatSuperscript   = "sup"
)

// Type is the registered description of one block type.
type Type struct {
	Name             string
	Attributes       map[string]Attr
	SupportedFormats []string
	// RequiresContent marks types that are meaningless when empty.
	RequiresContent bool
}

// SupportsFormat reports whether the inline format is whitelisted.
func (t *Type) SupportsFormat(format string) bool {
	for _, f := range t.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Registry maps type names to their schemas and tracks accepted namespace
// prefixes for types without a registered schema.
type Registry struct {
	types    map[string]*Type
	prefixes []string
}

// NewRegistry creates an empty registry accepting the given namespace
// prefixes (e.g. "core/").
func NewRegistry(prefixes ...string) *Registry {
	return &Registry{
		types:    make(map[string]*Type),
		prefixes: prefixes,
	}
}

// Register adds or replaces a type.
func (r *Registry) Register(t *Type) {
	r.types[t.Name] = t
}

// Lookup returns the schema for a registered type.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Known reports whether the type is registered or falls under an accepted
// namespace prefix.
func (r *Registry) Known(name string) bool {
	if _, ok := r.types[name]; ok {
		return true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Names returns all registered type names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	return names
}

// Suggest returns the closest registered type by substring match for an
// unknown type name, or "" when nothing resembles it.
func (r *Registry) Suggest(name string) string {
	short := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		short = name[i+1:]
	}
	for n := range r.types {
		if strings.Contains(n, short) || strings.Contains(short, n[strings.LastIndex(n, "/")+1:]) {
			return n
		}
	}
	return ""
}
