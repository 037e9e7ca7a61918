// CLAUDE:SUMMARY Baseline change tracking: three-way diff by id plus bounded per-block text hunks.
package session

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeEntry describes one block's divergence from the baseline.
type ChangeEntry struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Position int    `json:"position"`
	// Hunks carries a line diff of the block's content, modified entries only.
	Hunks []Hunk `json:"hunks,omitempty"`
}

// ChangeSet classifies every block against the session baseline.
type ChangeSet struct {
	Added    []ChangeEntry `json:"added"`
	Modified []ChangeEntry `json:"modified"`
	Deleted  []ChangeEntry `json:"deleted"`
	Total    int           `json:"total"`
}

// Line is one line of a content diff.
type Line struct {
	Kind    string `json:"kind"` // "context", "added", "removed"
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

// Hunk groups the lines of one diff region.
type Hunk struct {
	Lines []Line `json:"lines"`
}

const (
	lineContext = "context"
	lineAdded   = "added"
	lineRemoved = "removed"
)

// maxDiffLines bounds the per-block hunk size so a pathological edit cannot
// balloon a change report.
const maxDiffLines = 400

// Changes computes the three-way diff against the baseline by id: present
// only in the current list means added; present in both with a differing
// content hash means modified; present only in the baseline means deleted.
// An unmodified session yields empty slices and Total 0.
func (s *Session) Changes() *ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	cs := &ChangeSet{
		Added:    []ChangeEntry{},
		Modified: []ChangeEntry{},
		Deleted:  []ChangeEntry{},
	}

	base := s.baseline.Index()

	for _, b := range s.blocks {
		old, ok := base[b.ID]
		if !ok {
			cs.Added = append(cs.Added, ChangeEntry{ID: b.ID, Type: b.Type, Position: b.Position})
			continue
		}
		if b.ContentHash != old.ContentHash {
			cs.Modified = append(cs.Modified, ChangeEntry{
				ID:       b.ID,
				Type:     b.Type,
				Position: b.Position,
				Hunks:    textDiff(old.Content, b.Content),
			})
		}
	}

	current := s.index
	for _, old := range s.baseline {
		if _, ok := current[old.ID]; !ok {
			cs.Deleted = append(cs.Deleted, ChangeEntry{ID: old.ID, Type: old.Type, Position: old.Position})
		}
	}

	cs.Total = len(cs.Added) + len(cs.Modified) + len(cs.Deleted)
	return cs
}

// textDiff produces a line-level diff of two content strings.
func textDiff(before, after string) []Hunk {
	if before == after {
		return nil
	}

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []Line
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			if len(lines) >= maxDiffLines {
				return []Hunk{{Lines: lines}}
			}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, Line{Kind: lineContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, Line{Kind: lineRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, Line{Kind: lineAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return []Hunk{{Lines: lines}}
}
