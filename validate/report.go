// CLAUDE:SUMMARY Document-level aggregation: per-block diagnostics plus the adjacent-list context rule.
package validate

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/plume/block"
)

// Report aggregates validation results for a whole document.
type Report struct {
	Valid    bool                `json:"valid"`
	Errors   []string            `json:"errors"`
	PerBlock map[string][]string `json:"per_block_errors"`
}

// listTypes participate in the adjacent-list context rule.
var listTypes = map[string]bool{
	"core/list": true,
}

// Blocks validates every block and folds in document-level context checks.
// Overall validity is false when any block has a non-warning diagnostic or a
// context rule fails; warning-prefixed diagnostics are reported but do not
// invalidate the document.
func (v *Validator) Blocks(blocks block.List) *Report {
	r := &Report{
		Valid:    true,
		PerBlock: make(map[string][]string),
	}

	for _, b := range blocks {
		r.Fold(b, v.Block(b))
	}
	r.FoldContext(v.Context(blocks))
	return r
}

// Context runs document-level rules that no single block can see. Currently:
// adjacent list blocks with no intervening non-list block, since nested or
// stacked lists are not supported by the wire format.
func (v *Validator) Context(blocks block.List) []string {
	var diags []string
	for i := 1; i < len(blocks); i++ {
		if listTypes[blocks[i-1].Type] && listTypes[blocks[i].Type] {
			diags = append(diags, fmt.Sprintf(
				"adjacent list blocks at positions %d and %d; merge them or separate with another block",
				blocks[i-1].Position, blocks[i].Position))
		}
	}
	return diags
}

// Fold merges one block's diagnostics into the report. Exposed so callers
// holding cached per-block results can rebuild a report without revalidating.
func (r *Report) Fold(b *block.Block, diags []string) {
	if len(diags) == 0 {
		return
	}
	key := b.ID
	if key == "" {
		key = fmt.Sprintf("position-%d", b.Position)
	}
	r.PerBlock[key] = diags
	for _, d := range diags {
		if !strings.HasPrefix(d, WarningPrefix) {
			r.Valid = false
			return
		}
	}
}

// FoldContext merges document-level diagnostics into the report.
func (r *Report) FoldContext(diags []string) {
	if len(diags) == 0 {
		return
	}
	r.Errors = append(r.Errors, diags...)
	r.Valid = false
}

// NewReport returns an empty, valid report ready for Fold calls.
func NewReport() *Report {
	return &Report{Valid: true, PerBlock: make(map[string][]string)}
}
