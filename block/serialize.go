// CLAUDE:SUMMARY Serializer: ordered block list → comment-delimited wire text.
package block

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Serialize renders blocks back to wire format:
//
//	<!-- type {attrs} -->
//	content
//	<!-- /type -->
//
// joined by blank lines. The attributes object is omitted entirely when
// empty. encoding/json sorts map keys, so attribute rendering is stable.
func Serialize(blocks List) (string, error) {
	parts := make([]string, 0, len(blocks))
	for i, b := range blocks {
		if b == nil {
			return "", fmt.Errorf("serialize: nil block at index %d", i)
		}
		if b.Type == "" {
			return "", fmt.Errorf("serialize: block %s has no type", b.ID)
		}
		marker := b.Type
		if len(b.Attributes) > 0 {
			attrs, err := json.Marshal(b.Attributes)
			if err != nil {
				return "", fmt.Errorf("serialize: block %s attributes: %w", b.ID, err)
			}
			marker += " " + string(attrs)
		}
		parts = append(parts, fmt.Sprintf("<!-- %s -->\n%s\n<!-- /%s -->", marker, b.Content, b.Type))
	}
	return strings.Join(parts, "\n\n"), nil
}
