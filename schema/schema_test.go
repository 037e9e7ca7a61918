package schema

import "testing"

func TestDefaultRegistry_CoreTypes(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{
		"core/paragraph", "core/heading", "core/list", "core/quote",
		"core/code", "core/image", "core/table", "core/separator", "core/html",
	} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("missing registered type %s", name)
		}
	}
}

func TestKnown_NamespacePrefix(t *testing.T) {
	r := DefaultRegistry()
	if !r.Known("core/gallery") {
		t.Error("unregistered core/* type should be known via prefix")
	}
	if !r.Known("plume/callout") {
		t.Error("plume/* namespace should be accepted")
	}
	if r.Known("acme/widget") {
		t.Error("foreign namespace should not be known")
	}
}

func TestSuggest(t *testing.T) {
	r := DefaultRegistry()
	if got := r.Suggest("acme/heading"); got != "core/heading" {
		t.Errorf("Suggest(acme/heading) = %q, want core/heading", got)
	}
	if got := r.Suggest("acme/zzzz"); got != "" {
		t.Errorf("Suggest(acme/zzzz) = %q, want empty", got)
	}
}

func TestSupportsFormat(t *testing.T) {
	r := DefaultRegistry()
	h, _ := r.Lookup("core/heading")
	if !h.SupportsFormat(FormatBold) {
		t.Error("heading should support bold")
	}
	if h.SupportsFormat(FormatStrikethrough) {
		t.Error("heading should not support strikethrough")
	}
}
