// CLAUDE:SUMMARY Default registry: the core/* block types and their attribute schemas.
package schema

func fptr(v float64) *float64 { return &v }

// DefaultRegistry returns the registry for the core block vocabulary.
// The "core/" and "plume/" namespaces are accepted for unregistered types.
func DefaultRegistry() *Registry {
	r := NewRegistry("core/", "plume/")

	r.Register(&Type{
		Name: "core/paragraph",
		Attributes: map[string]Attr{
			"align":   {Kind: KindString, Enum: []string{"left", "center", "right"}},
			"dropCap": {Kind: KindBoolean},
		},
		SupportedFormats: []string{
			FormatBold, FormatItalic, FormatLink, FormatCode,
			FormatStrikethrough, FormatSubscript, FormatSuperscript,
		},
		RequiresContent: true,
	})

	r.Register(&Type{
		Name: "core/heading",
		Attributes: map[string]Attr{
			"level": {Kind: KindInteger, Required: true, Min: fptr(1), Max: fptr(6)},
			"align": {Kind: KindString, Enum: []string{"left", "center", "right"}},
		},
		SupportedFormats: []string{FormatBold, FormatItalic, FormatLink},
		RequiresContent:  true,
	})

	r.Register(&Type{
		Name: "core/list",
		Attributes: map[string]Attr{
			"ordered": {Kind: KindBoolean},
			"start":   {Kind: KindInteger, Min: fptr(0)},
		},
		SupportedFormats: []string{FormatBold, FormatItalic, FormatLink, FormatCode, FormatStrikethrough},
		RequiresContent:  true,
	})

	r.Register(&Type{
		Name: "core/quote",
		Attributes: map[string]Attr{
			"citation": {Kind: KindString},
		},
		SupportedFormats: []string{FormatBold, FormatItalic, FormatLink},
		RequiresContent:  true,
	})

	r.Register(&Type{
		Name: "core/code",
		Attributes: map[string]Attr{
			"language": {Kind: KindString},
		},
		// The structural <code> wrapper must not trip the inline-format check.
		SupportedFormats: []string{FormatCode},
	})

	r.Register(&Type{
		Name: "core/image",
		Attributes: map[string]Attr{
			"url":     {Kind: KindString, Required: true},
			"alt":     {Kind: KindString},
			"caption": {Kind: KindString},
			"align":   {Kind: KindString, Enum: []string{"left", "center", "right", "wide", "full"}},
		},
	})

	r.Register(&Type{
		Name:             "core/table",
		SupportedFormats: []string{FormatBold, FormatItalic, FormatLink},
		RequiresContent:  true,
	})

	r.Register(&Type{Name: "core/separator"})

	r.Register(&Type{Name: "core/html"})

	return r
}
