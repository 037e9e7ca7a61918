package block

import "testing"

func TestHash_Stable(t *testing.T) {
	a := Hash("core/paragraph", map[string]any{"x": 1, "y": "z"}, "<p>hi</p>")
	b := Hash("core/paragraph", map[string]any{"y": "z", "x": 1}, "<p>hi</p>")
	if a != b {
		t.Error("hash must be independent of attribute insertion order")
	}
	if a == Hash("core/paragraph", map[string]any{"x": 1, "y": "z"}, "<p>ho</p>") {
		t.Error("different content must hash differently")
	}
	if a == Hash("core/quote", map[string]any{"x": 1, "y": "z"}, "<p>hi</p>") {
		t.Error("different type must hash differently")
	}
}

func TestHash_EmptyAttrs(t *testing.T) {
	if Hash("core/paragraph", nil, "x") != Hash("core/paragraph", map[string]any{}, "x") {
		t.Error("nil and empty attributes must hash identically")
	}
}

func TestClone_NoAliasing(t *testing.T) {
	b := &Block{
		ID:         "a",
		Type:       "core/image",
		Attributes: map[string]any{"url": "http://x", "meta": map[string]any{"w": 10}},
		Content:    "<img/>",
	}
	c := b.Clone()
	c.Attributes["url"] = "http://y"
	c.Attributes["meta"].(map[string]any)["w"] = 20

	if b.Attributes["url"] != "http://x" {
		t.Error("clone aliases top-level attributes")
	}
	if b.Attributes["meta"].(map[string]any)["w"] != 10 {
		t.Error("clone aliases nested attributes")
	}
}

func TestList_Renumber(t *testing.T) {
	l := List{
		{ID: "a", Position: 4},
		{ID: "b", Position: 9},
		{ID: "c", Position: 1},
	}
	l.Renumber()
	for i, b := range l {
		if b.Position != i {
			t.Errorf("position[%d] = %d", i, b.Position)
		}
	}
}

func TestList_Index(t *testing.T) {
	l := List{{ID: "a"}, {ID: "b"}}
	idx := l.Index()
	if idx["a"] != l[0] || idx["b"] != l[1] {
		t.Error("index does not point at list entries")
	}
	if l.ByID("missing") != nil {
		t.Error("ByID on unknown id should return nil")
	}
}
