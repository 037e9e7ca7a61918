// CLAUDE:SUMMARY Document session: mutable indexed block list over an immutable baseline, with non-blocking validation.
// Package session orchestrates the block engine: it owns live documents,
// applies block-level mutations, runs validation and repair, and tracks
// changes against the baseline captured at creation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/plume/block"
	"github.com/hazyhaar/plume/idgen"
	"github.com/hazyhaar/plume/platform"
	"github.com/hazyhaar/plume/repair"
	"github.com/hazyhaar/plume/validate"
)

// ContentType distinguishes the two platform content kinds.
type ContentType string

const (
	ContentPost ContentType = "post"
	ContentPage ContentType = "page"
)

// Session is one live editable document. All methods are safe for concurrent
// use; a session driven from two tool calls at once cannot corrupt positions.
//
// The baseline is captured once at creation and never updated. It is the sole
// reference point for change computation for the session's lifetime.
type Session struct {
	Handle      string
	ContentID   string
	ContentType ContentType

	mu       sync.Mutex
	blocks   block.List
	index    map[string]*block.Block
	baseline block.List

	// history keeps pre-edit snapshots, newest last. Enough to roll back the
	// most recent edit to a given block, not a general undo stack.
	history []mutation

	valCache map[string]cachedResult

	createdAt time.Time
	lastUsed  time.Time

	validator *validate.Validator
	fixer     *repair.Fixer
	sanitizer *bluemonday.Policy
	newID     idgen.Generator
	logger    *slog.Logger
}

type mutation struct {
	BlockID string
	Backup  *block.Block
	At      time.Time
}

type cachedResult struct {
	Diags []string
	At    time.Time
}

// BlockFilter narrows List results. Zero value matches everything.
type BlockFilter struct {
	Type string
}

// EditPatch carries the fields to merge into a block. Nil means "leave as is".
type EditPatch struct {
	Content    *string
	Attributes map[string]any
}

// MutationResult is the outcome of a non-blocking mutation: the block always
// reflects the applied state, and Warnings carries every validation
// diagnostic without having blocked the apply.
type MutationResult struct {
	Block    *block.Block `json:"block"`
	Warnings []string     `json:"warnings"`
}

// touch must be called with s.mu held.
func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// List returns deep copies of the session's blocks in position order,
// optionally narrowed by filter.
func (s *Session) List(filter BlockFilter) block.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	out := make(block.List, 0, len(s.blocks))
	for _, b := range s.blocks {
		if filter.Type != "" && b.Type != filter.Type {
			continue
		}
		out = append(out, b.Clone())
	}
	return out
}

// Read returns a deep copy of one block.
func (s *Session) Read(blockID string) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	b, ok := s.index[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	return b.Clone(), nil
}

// Edit merges the patch into the target block. Validation runs after the
// merge but never blocks it: diagnostics come back as warnings so an
// iterative caller can fix issues over multiple turns. An internal failure
// during the apply step restores the block from its pre-edit backup.
func (s *Session) Edit(blockID string, patch EditPatch) (res *MutationResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	b, ok := s.index[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	backup := b.Clone()
	defer func() {
		if r := recover(); r != nil {
			*b = *backup
			s.logger.Error("edit rolled back", "block_id", blockID, "panic", fmt.Sprint(r))
			err = fmt.Errorf("session: edit %s: internal failure: %v", blockID, r)
		}
	}()

	if patch.Content != nil {
		b.Content = s.sanitize(*patch.Content)
	}
	if patch.Attributes != nil {
		if b.Attributes == nil {
			b.Attributes = make(map[string]any, len(patch.Attributes))
		}
		for k, v := range block.CloneAttrs(patch.Attributes) {
			if v == nil {
				delete(b.Attributes, k)
				continue
			}
			b.Attributes[k] = v
		}
	}
	b.Rehash()

	s.history = append(s.history, mutation{BlockID: blockID, Backup: backup, At: time.Now()})
	delete(s.valCache, blockID)

	return &MutationResult{Block: b.Clone(), Warnings: s.validator.Block(b)}, nil
}

// Revert restores the target block from its most recent pre-edit backup.
// Only the last edit to a given block can be undone.
func (s *Session) Revert(blockID string) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	b, ok := s.index[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].BlockID != blockID {
			continue
		}
		*b = *s.history[i].Backup.Clone()
		s.history = append(s.history[:i], s.history[i+1:]...)
		delete(s.valCache, blockID)
		return b.Clone(), nil
	}
	return nil, fmt.Errorf("session: no edit to revert for block %s", blockID)
}

// Insert creates a new block at position. Blocks at or after the position
// shift up by one. Position is clamped into [0, len]. Validation follows the
// same non-blocking policy as Edit.
func (s *Session) Insert(typ, content string, position int, attrs map[string]any) (*MutationResult, error) {
	if typ == "" {
		return nil, fmt.Errorf("%w: block type required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if position < 0 {
		position = 0
	}
	if position > len(s.blocks) {
		position = len(s.blocks)
	}

	b := &block.Block{
		ID:         s.newID(),
		Type:       typ,
		Attributes: block.CloneAttrs(attrs),
		Content:    s.sanitize(content),
	}
	if b.Attributes == nil {
		b.Attributes = map[string]any{}
	}
	b.Rehash()

	s.blocks = append(s.blocks, nil)
	copy(s.blocks[position+1:], s.blocks[position:])
	s.blocks[position] = b
	s.blocks.Renumber()
	s.index[b.ID] = b

	return &MutationResult{Block: b.Clone(), Warnings: s.validator.Block(b)}, nil
}

// Delete removes the block and compacts every later position by one.
func (s *Session) Delete(blockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	b, ok := s.index[blockID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	s.blocks = append(s.blocks[:b.Position], s.blocks[b.Position+1:]...)
	s.blocks.Renumber()
	delete(s.index, blockID)
	delete(s.valCache, blockID)
	return nil
}

// Reorder moves the block to newPosition and renumbers the whole list.
// O(n) per call; fine for realistic per-document block counts.
func (s *Session) Reorder(blockID string, newPosition int) (*block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	b, ok := s.index[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}

	s.blocks = append(s.blocks[:b.Position], s.blocks[b.Position+1:]...)
	if newPosition < 0 {
		newPosition = 0
	}
	if newPosition > len(s.blocks) {
		newPosition = len(s.blocks)
	}
	s.blocks = append(s.blocks, nil)
	copy(s.blocks[newPosition+1:], s.blocks[newPosition:])
	s.blocks[newPosition] = b
	s.blocks.Renumber()

	return b.Clone(), nil
}

// Validate checks the named blocks, or the whole document when no ids are
// given. Per-block results are cached with a timestamp and reused until the
// block's next mutation. Document-level context rules run only on whole-
// document validation, since they need to see adjacency.
func (s *Session) Validate(blockIDs ...string) (*validate.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	targets := s.blocks
	if len(blockIDs) > 0 {
		targets = make(block.List, 0, len(blockIDs))
		for _, id := range blockIDs {
			b, ok := s.index[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
			}
			targets = append(targets, b)
		}
	}

	r := validate.NewReport()
	for _, b := range targets {
		cached, ok := s.valCache[b.ID]
		if !ok {
			cached = cachedResult{Diags: s.validator.Block(b), At: time.Now()}
			if b.ID != "" {
				s.valCache[b.ID] = cached
			}
		}
		r.Fold(b, cached.Diags)
	}
	if len(blockIDs) == 0 {
		r.FoldContext(s.validator.Context(s.blocks))
	}
	return r, nil
}

// DocumentContent runs the auto-fixer over the live block list (mutating the
// session's working copy) and serializes it to wire format. When
// serialization still fails after repair, every block degrades to a plain
// paragraph rather than losing content.
func (s *Session) DocumentContent() (string, *repair.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	res := s.fixer.Fix(s.blocks)
	s.rebuildIndex()
	// Repaired blocks carry new content and attributes; their cached
	// diagnostics are stale.
	for _, fx := range res.Fixes {
		delete(s.valCache, fx.BlockID)
	}

	text, err := block.Serialize(s.blocks)
	if err == nil {
		return text, res
	}

	s.logger.Warn("serialize failed after repair, degrading to paragraphs",
		"session", s.Handle, "error", err)
	s.blocks = s.fixer.LastResort(s.blocks)
	s.rebuildIndex()
	s.valCache = make(map[string]cachedResult)
	text, err = block.Serialize(s.blocks)
	if err != nil {
		// Paragraphs with generated ids cannot fail to serialize; keep the
		// guarantee anyway.
		text = ""
	}
	return text, res
}

// SyncOptions tunes one Sync call.
type SyncOptions struct {
	// Strict turns validation into a blocking pre-sync gate.
	Strict bool
	// Meta is passed through to the platform update verbatim.
	Meta map[string]any
}

// SyncResult reports what a Sync pushed.
type SyncResult struct {
	ContentID  string           `json:"content_id"`
	Bytes      int              `json:"bytes"`
	FixCount   int              `json:"fix_count"`
	ChangeSet  *ChangeSet       `json:"changes"`
	Validation *validate.Report `json:"validation,omitempty"`
}

// Sync serializes the document and pushes it to the platform. With
// opts.Strict, a failing validation report blocks the sync; otherwise
// diagnostics are repaired or carried along as warnings.
func (s *Session) Sync(ctx context.Context, client platform.Client, opts SyncOptions) (*SyncResult, error) {
	if opts.Strict {
		report, err := s.Validate()
		if err != nil {
			return nil, err
		}
		if !report.Valid {
			return &SyncResult{ContentID: s.ContentID, Validation: report},
				fmt.Errorf("%w: %d blocks with errors", ErrValidationGate, len(report.PerBlock))
		}
	}

	changes := s.Changes()
	content, fixes := s.DocumentContent()

	if err := client.Update(ctx, s.ContentID, platform.UpdateRequest{Content: content, Meta: opts.Meta}); err != nil {
		return nil, fmt.Errorf("session: sync %s: %w", s.ContentID, err)
	}

	s.logger.Info("synced",
		"session", s.Handle,
		"content_id", s.ContentID,
		"bytes", len(content),
		"fixes", fixes.Count,
		"changed", changes.Total)

	return &SyncResult{
		ContentID: s.ContentID,
		Bytes:     len(content),
		FixCount:  fixes.Count,
		ChangeSet: changes,
	}, nil
}

// rebuildIndex must be called with s.mu held after any structural change
// that may have replaced block pointers.
func (s *Session) rebuildIndex() {
	s.index = s.blocks.Index()
}

func (s *Session) sanitize(content string) string {
	if s.sanitizer == nil {
		return content
	}
	return s.sanitizer.Sanitize(content)
}
