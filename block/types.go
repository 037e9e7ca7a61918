// CLAUDE:SUMMARY Block entity, deep clone, and the ordered List with id index and position renumbering.
// Package block holds the block document model and its wire codec.
//
// A document is an ordered sequence of typed blocks serialized inline in an
// HTML-like document using a comment-delimited convention:
//
//	<!-- core/paragraph {"dropCap":false} -->
//	<p>Hello</p>
//	<!-- /core/paragraph -->
//
// Blocks carry a content hash computed at parse time (OriginalHash) and
// recomputed after every mutation (ContentHash); the pair drives change
// detection in the session layer.
package block

// Block is an atomic content unit: a type, an attribute set, a markup payload
// and a position inside the document.
type Block struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Attributes   map[string]any `json:"attributes"`
	Content      string         `json:"content"`
	Position     int            `json:"position"`
	ContentHash  string         `json:"content_hash"`
	OriginalHash string         `json:"original_hash"`
}

// Clone returns a deep copy of the block. Attribute values are copied
// structurally so the clone never aliases the original's map.
func (b *Block) Clone() *Block {
	c := *b
	c.Attributes = cloneAttrs(b.Attributes)
	return &c
}

// Rehash recomputes ContentHash from the block's current type, attributes and
// content. OriginalHash is left untouched.
func (b *Block) Rehash() {
	b.ContentHash = Hash(b.Type, b.Attributes, b.Content)
}

// CloneAttrs structurally copies an attribute map. Callers merging caller-
// supplied attributes into a live block use this to avoid aliasing the input.
func CloneAttrs(attrs map[string]any) map[string]any {
	return cloneAttrs(attrs)
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAttrs(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return t
	}
}

// List is an ordered collection of blocks.
type List []*Block

// Clone deep-copies every block in the list.
func (l List) Clone() List {
	out := make(List, len(l))
	for i, b := range l {
		out[i] = b.Clone()
	}
	return out
}

// Renumber rewrites positions to the unbroken sequence 0..N-1 in list order.
func (l List) Renumber() {
	for i, b := range l {
		b.Position = i
	}
}

// Index builds an id → block lookup map.
func (l List) Index() map[string]*Block {
	idx := make(map[string]*Block, len(l))
	for _, b := range l {
		idx[b.ID] = b
	}
	return idx
}

// ByID returns the block with the given id, or nil.
func (l List) ByID(id string) *Block {
	for _, b := range l {
		if b.ID == id {
			return b
		}
	}
	return nil
}
