// CLAUDE:SUMMARY Canonical blake3-256 content hashing over {type, sorted attributes, content}.
package block

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Hash digests the canonical form of {type, attributes, content} with
// blake3-256 and returns the hex string. Attribute keys are sorted so two
// logically identical blocks hash identically regardless of map iteration
// order.
func Hash(typ string, attrs map[string]any, content string) string {
	var sb strings.Builder
	sb.WriteString(typ)
	sb.WriteByte('\x00')
	sb.WriteString(canonicalAttrs(attrs))
	sb.WriteByte('\x00')
	sb.WriteString(content)
	sum := blake3.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func canonicalAttrs(attrs map[string]any) string {
	if len(attrs) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		sb.Write(kb)
		sb.WriteByte(':')
		vb, err := json.Marshal(attrs[k])
		if err != nil {
			// Unmarshalable values still need a stable representation.
			vb = []byte(fmt.Sprintf("%q", fmt.Sprint(attrs[k])))
		}
		sb.Write(vb)
	}
	sb.WriteByte('}')
	return sb.String()
}
