// CLAUDE:SUMMARY MCP tool surface: fourteen plume_* tools over the session store, with policy and audit middleware.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/plume/audit"
	"github.com/hazyhaar/plume/kit"
	"github.com/hazyhaar/plume/markup"
	"github.com/hazyhaar/plume/platform"
)

// MCPOptions wires the cross-cutting concerns of the tool surface.
type MCPOptions struct {
	// Policy may refuse tools per caller role. Nil allows everything.
	Policy kit.PolicyFunc
	// Audit records every call when non-nil.
	Audit *audit.Logger
	// Platform backs plume_sync and content fetch on session creation.
	Platform platform.Client
	// ReadOnly skips registration of every mutating tool.
	ReadOnly bool
}

type mcpSurface struct {
	st   *Store
	srv  *mcp.Server
	opts MCPOptions
}

// RegisterMCP registers the full tool surface on an MCP server.
func (st *Store) RegisterMCP(srv *mcp.Server, opts MCPOptions) {
	m := &mcpSurface{st: st, srv: srv, opts: opts}

	m.registerCreateSession()
	m.registerListBlocks()
	m.registerReadBlock()
	m.registerValidate()
	m.registerGetChanges()
	m.registerGetContent()
	m.registerCloseSession()
	m.registerMarkupToBlocks()
	m.registerBlocksToMarkup()

	if opts.ReadOnly {
		return
	}
	m.registerEditBlock()
	m.registerInsertBlock()
	m.registerDeleteBlock()
	m.registerReorderBlock()
	m.registerSync()
}

// register wraps the endpoint with policy and audit middleware before
// handing it to the transport.
func (m *mcpSurface) register(tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	endpoint = kit.Chain(
		kit.PolicyMiddleware(m.opts.Policy, tool.Name),
		audit.Middleware(m.opts.Audit, tool.Name),
	)(endpoint)
	kit.RegisterMCPTool(m.srv, tool, endpoint, decode)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// decodeJSON builds the standard decode func: unmarshal arguments into a
// fresh *T and, when the request carries a session handle, enrich context.
func decodeJSON[T any](handle func(*T) string) func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		p := new(T)
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, p); err != nil {
				return nil, err
			}
		}
		res := &kit.MCPDecodeResult{Request: p}
		if handle != nil {
			if h := handle(p); h != "" {
				res.EnrichCtx = func(ctx context.Context) context.Context {
					return kit.WithSession(ctx, h)
				}
			}
		}
		return res, nil
	}
}

var sessionProp = map[string]any{"type": "string", "description": "Session handle from plume_create_session"}

// --- Lifecycle ---

func (m *mcpSurface) registerCreateSession() {
	type req struct {
		ContentID   string `json:"content_id"`
		ContentType string `json:"content_type"`
		Content     string `json:"content"`
	}
	type resp struct {
		Handle      string `json:"handle"`
		ContentID   string `json:"content_id"`
		ContentType string `json:"content_type"`
		Blocks      int    `json:"blocks"`
	}

	tool := &mcp.Tool{
		Name:        "plume_create_session",
		Description: "Open an editing session over content. Accepts block-comment text or the markup dialect; omit content to fetch it from the platform.",
		InputSchema: inputSchema(map[string]any{
			"content_id":   map[string]any{"type": "string", "description": "Platform content ID"},
			"content_type": map[string]any{"type": "string", "description": "Content kind: post or page"},
			"content":      map[string]any{"type": "string", "description": "Raw content; fetched from the platform when omitted"},
		}, []string{"content_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		ct := ContentType(p.ContentType)

		var s *Session
		var err error
		if p.Content == "" && m.opts.Platform != nil {
			s, err = m.st.CreateFromPlatform(ctx, m.opts.Platform, p.ContentID, ct)
		} else {
			s, err = m.st.Create(p.ContentID, ct, p.Content)
		}
		if err != nil {
			return nil, err
		}
		return &resp{
			Handle:      s.Handle,
			ContentID:   s.ContentID,
			ContentType: string(s.ContentType),
			Blocks:      len(s.List(BlockFilter{})),
		}, nil
	}

	m.register(tool, endpoint, decodeJSON[req](nil))
}

func (m *mcpSurface) registerCloseSession() {
	type req struct {
		Session string `json:"session"`
	}

	tool := &mcp.Tool{
		Name:        "plume_close_session",
		Description: "Close an editing session, discarding unsynced changes",
		InputSchema: inputSchema(map[string]any{
			"session": sessionProp,
		}, []string{"session"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		if err := m.st.Close(p.Session); err != nil {
			return nil, err
		}
		return map[string]any{"closed": true}, nil
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

// --- Reads ---

func (m *mcpSurface) registerListBlocks() {
	type req struct {
		Session string `json:"session"`
		Type    string `json:"type"`
	}

	tool := &mcp.Tool{
		Name:        "plume_list_blocks",
		Description: "List the session's blocks in position order, optionally filtered by type",
		InputSchema: inputSchema(map[string]any{
			"session": sessionProp,
			"type":    map[string]any{"type": "string", "description": "Only blocks of this type, e.g. core/paragraph"},
		}, []string{"session"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.List(BlockFilter{Type: p.Type}), nil
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerReadBlock() {
	type req struct {
		Session string `json:"session"`
		BlockID string `json:"block_id"`
	}

	tool := &mcp.Tool{
		Name:        "plume_read_block",
		Description: "Read one block by id",
		InputSchema: inputSchema(map[string]any{
			"session":  sessionProp,
			"block_id": map[string]any{"type": "string", "description": "Block ID"},
		}, []string{"session", "block_id"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Read(p.BlockID)
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerValidate() {
	type req struct {
		Session  string   `json:"session"`
		BlockIDs []string `json:"block_ids"`
	}

	tool := &mcp.Tool{
		Name:        "plume_validate",
		Description: "Validate the whole document, or only the named blocks",
		InputSchema: inputSchema(map[string]any{
			"session":   sessionProp,
			"block_ids": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Restrict validation to these block IDs"},
		}, []string{"session"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Validate(p.BlockIDs...)
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerGetChanges() {
	type req struct {
		Session string `json:"session"`
	}

	tool := &mcp.Tool{
		Name:        "plume_get_changes",
		Description: "Report blocks added, modified or deleted since the session baseline",
		InputSchema: inputSchema(map[string]any{
			"session": sessionProp,
		}, []string{"session"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Changes(), nil
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerGetContent() {
	type req struct {
		Session string `json:"session"`
	}
	type resp struct {
		Content  string `json:"content"`
		FixCount int    `json:"fix_count"`
	}

	tool := &mcp.Tool{
		Name:        "plume_get_content",
		Description: "Serialize the session to wire format, auto-repairing blocks first",
		InputSchema: inputSchema(map[string]any{
			"session": sessionProp,
		}, []string{"session"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		content, fixes := s.DocumentContent()
		return &resp{Content: content, FixCount: fixes.Count}, nil
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

// --- Mutations ---

func (m *mcpSurface) registerEditBlock() {
	type req struct {
		Session    string         `json:"session"`
		BlockID    string         `json:"block_id"`
		Content    *string        `json:"content"`
		Attributes map[string]any `json:"attributes"`
	}

	tool := &mcp.Tool{
		Name:        "plume_edit_block",
		Description: "Merge content and/or attributes into a block. Validation issues come back as warnings; the edit always applies.",
		InputSchema: inputSchema(map[string]any{
			"session":    sessionProp,
			"block_id":   map[string]any{"type": "string", "description": "Block ID"},
			"content":    map[string]any{"type": "string", "description": "Replacement content"},
			"attributes": map[string]any{"type": "object", "description": "Attributes to merge; null values delete the key"},
		}, []string{"session", "block_id"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Edit(p.BlockID, EditPatch{Content: p.Content, Attributes: p.Attributes})
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerInsertBlock() {
	type req struct {
		Session    string         `json:"session"`
		Type       string         `json:"type"`
		Content    string         `json:"content"`
		Position   int            `json:"position"`
		Attributes map[string]any `json:"attributes"`
	}

	tool := &mcp.Tool{
		Name:        "plume_insert_block",
		Description: "Insert a new block at a position; later blocks shift down",
		InputSchema: inputSchema(map[string]any{
			"session":    sessionProp,
			"type":       map[string]any{"type": "string", "description": "Block type, e.g. core/paragraph"},
			"content":    map[string]any{"type": "string", "description": "Block content"},
			"position":   map[string]any{"type": "integer", "description": "Zero-based insert position; clamped into range"},
			"attributes": map[string]any{"type": "object", "description": "Initial attributes"},
		}, []string{"session", "type"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Insert(p.Type, p.Content, p.Position, p.Attributes)
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerDeleteBlock() {
	type req struct {
		Session string `json:"session"`
		BlockID string `json:"block_id"`
	}

	tool := &mcp.Tool{
		Name:        "plume_delete_block",
		Description: "Delete a block; later positions compact by one",
		InputSchema: inputSchema(map[string]any{
			"session":  sessionProp,
			"block_id": map[string]any{"type": "string", "description": "Block ID"},
		}, []string{"session", "block_id"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		if err := s.Delete(p.BlockID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": p.BlockID}, nil
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerReorderBlock() {
	type req struct {
		Session  string `json:"session"`
		BlockID  string `json:"block_id"`
		Position int    `json:"position"`
	}

	tool := &mcp.Tool{
		Name:        "plume_reorder_block",
		Description: "Move a block to a new position and renumber the document",
		InputSchema: inputSchema(map[string]any{
			"session":  sessionProp,
			"block_id": map[string]any{"type": "string", "description": "Block ID"},
			"position": map[string]any{"type": "integer", "description": "Zero-based target position"},
		}, []string{"session", "block_id", "position"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Reorder(p.BlockID, p.Position)
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

func (m *mcpSurface) registerSync() {
	type req struct {
		Session string         `json:"session"`
		Strict  bool           `json:"strict"`
		Meta    map[string]any `json:"meta"`
	}

	tool := &mcp.Tool{
		Name:        "plume_sync",
		Description: "Push the session's content to the platform. With strict, validation errors block the sync.",
		InputSchema: inputSchema(map[string]any{
			"session": sessionProp,
			"strict":  map[string]any{"type": "boolean", "description": "Fail instead of auto-repairing when validation reports errors"},
			"meta":    map[string]any{"type": "object", "description": "Metadata passed to the platform update"},
		}, []string{"session"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if m.opts.Platform == nil {
			return nil, fmt.Errorf("%w: no platform client configured", ErrInvalidInput)
		}
		s, err := m.st.Get(p.Session)
		if err != nil {
			return nil, err
		}
		return s.Sync(ctx, m.opts.Platform, SyncOptions{Strict: p.Strict, Meta: p.Meta})
	}

	m.register(tool, endpoint, decodeJSON(func(p *req) string { return p.Session }))
}

// --- Converters (stateless, no session needed) ---

func (m *mcpSurface) registerMarkupToBlocks() {
	type req struct {
		Text string `json:"text"`
	}

	tool := &mcp.Tool{
		Name:        "plume_markup_to_blocks",
		Description: "Convert the markup dialect to block-comment wire format",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Markup text"},
		}, []string{"text"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		return map[string]any{"content": markup.ToBlocks(p.Text)}, nil
	}

	m.register(tool, endpoint, decodeJSON[req](nil))
}

func (m *mcpSurface) registerBlocksToMarkup() {
	type req struct {
		Text string `json:"text"`
	}

	tool := &mcp.Tool{
		Name:        "plume_blocks_to_markup",
		Description: "Approximate the markup dialect from block-comment wire format (lossy)",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Block-comment text"},
		}, []string{"text"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		return map[string]any{"markup": markup.FromBlocks(p.Text)}, nil
	}

	m.register(tool, endpoint, decodeJSON[req](nil))
}
