package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/plume/kit"
)

var testMCPImpl = &mcp.Implementation{Name: "plume-test", Version: "0.1.0"}

func mcpSession(t *testing.T, opts MCPOptions) *mcp.ClientSession {
	t.Helper()
	st := NewStore(Config{})
	t.Cleanup(st.Shutdown)

	srv := mcp.NewServer(testMCPImpl, nil)
	st.RegisterMCP(srv, opts)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, toolError(result))
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func mcpCallToolErr(t *testing.T, session *mcp.ClientSession, name string, args any) error {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		return toolError(result)
	}
	return nil
}

// toolError reconstructs a tool error from the result content; on the client
// side only IsError and the error text in Content cross the wire.
func toolError(result *mcp.CallToolResult) error {
	if len(result.Content) > 0 {
		if tc, ok := result.Content[0].(*mcp.TextContent); ok {
			return errors.New(tc.Text)
		}
	}
	return errors.New("tool error")
}

func createToolSession(t *testing.T, cs *mcp.ClientSession) string {
	t.Helper()
	text := mcpCallTool(t, cs, "plume_create_session", map[string]any{
		"content_id": "post-1",
		"content":    testDoc,
	})
	var resp struct {
		Handle string `json:"handle"`
		Blocks int    `json:"blocks"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Blocks != 3 {
		t.Fatalf("blocks = %d", resp.Blocks)
	}
	return resp.Handle
}

func TestMCP_SessionRoundTrip(t *testing.T) {
	cs := mcpSession(t, MCPOptions{})
	handle := createToolSession(t, cs)

	// List, then edit the second block through the tool surface.
	var blocks []struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	text := mcpCallTool(t, cs, "plume_list_blocks", map[string]any{"session": handle})
	if err := json.Unmarshal([]byte(text), &blocks); err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d", len(blocks))
	}

	text = mcpCallTool(t, cs, "plume_edit_block", map[string]any{
		"session":  handle,
		"block_id": blocks[1].ID,
		"content":  "<p>Edited through a tool</p>",
	})
	var edit struct {
		Block struct {
			Content string `json:"content"`
		} `json:"block"`
	}
	if err := json.Unmarshal([]byte(text), &edit); err != nil {
		t.Fatal(err)
	}
	if edit.Block.Content != "<p>Edited through a tool</p>" {
		t.Fatalf("content = %q", edit.Block.Content)
	}

	text = mcpCallTool(t, cs, "plume_get_changes", map[string]any{"session": handle})
	var changes struct {
		Modified []struct {
			ID string `json:"id"`
		} `json:"modified"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(text), &changes); err != nil {
		t.Fatal(err)
	}
	if changes.Total != 1 || len(changes.Modified) != 1 || changes.Modified[0].ID != blocks[1].ID {
		t.Fatalf("changes = %+v", changes)
	}

	text = mcpCallTool(t, cs, "plume_get_content", map[string]any{"session": handle})
	var content struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content.Content, "Edited through a tool") {
		t.Fatalf("content = %q", content.Content)
	}

	mcpCallTool(t, cs, "plume_close_session", map[string]any{"session": handle})
	if err := mcpCallToolErr(t, cs, "plume_read_block", map[string]any{
		"session": handle, "block_id": blocks[0].ID,
	}); err == nil {
		t.Fatal("closed session still served reads")
	}
}

func TestMCP_ValidateReportsWarnings(t *testing.T) {
	cs := mcpSession(t, MCPOptions{})
	handle := createToolSession(t, cs)

	var blocks []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	text := mcpCallTool(t, cs, "plume_list_blocks", map[string]any{"session": handle, "type": "core/heading"})
	if err := json.Unmarshal([]byte(text), &blocks); err != nil {
		t.Fatal(err)
	}

	mcpCallTool(t, cs, "plume_edit_block", map[string]any{
		"session":    handle,
		"block_id":   blocks[0].ID,
		"attributes": map[string]any{"level": 9},
	})

	text = mcpCallTool(t, cs, "plume_validate", map[string]any{"session": handle})
	var report struct {
		Valid    bool                `json:"valid"`
		PerBlock map[string][]string `json:"per_block_errors"`
	}
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatal(err)
	}
	if report.Valid {
		t.Fatal("level 9 heading validated")
	}
	if len(report.PerBlock[blocks[0].ID]) == 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestMCP_UnknownSessionIsToolError(t *testing.T) {
	cs := mcpSession(t, MCPOptions{})
	err := mcpCallToolErr(t, cs, "plume_list_blocks", map[string]any{"session": "ses_ghost"})
	if err == nil {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestMCP_Converters(t *testing.T) {
	cs := mcpSession(t, MCPOptions{})

	text := mcpCallTool(t, cs, "plume_markup_to_blocks", map[string]any{"text": "# Title\n\nBody text"})
	var fwd struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(text), &fwd); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fwd.Content, "<!-- core/heading") || !strings.Contains(fwd.Content, "<h1>Title</h1>") {
		t.Fatalf("content = %q", fwd.Content)
	}

	text = mcpCallTool(t, cs, "plume_blocks_to_markup", map[string]any{"text": fwd.Content})
	var rev struct {
		Markup string `json:"markup"`
	}
	if err := json.Unmarshal([]byte(text), &rev); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rev.Markup, "# Title") {
		t.Fatalf("markup = %q", rev.Markup)
	}
}

func TestMCP_ReadOnlySkipsMutators(t *testing.T) {
	cs := mcpSession(t, MCPOptions{ReadOnly: true})

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"plume_create_session", "plume_list_blocks", "plume_validate"} {
		if !names[want] {
			t.Errorf("missing read tool %s", want)
		}
	}
	for _, banned := range []string{"plume_edit_block", "plume_delete_block", "plume_sync"} {
		if names[banned] {
			t.Errorf("mutating tool %s registered in read-only mode", banned)
		}
	}
}

func TestMCP_PolicyDeniesTool(t *testing.T) {
	policy := kit.RolePolicy(map[string][]string{"plume_create_session": {"editor"}})
	cs := mcpSession(t, MCPOptions{Policy: policy})

	err := mcpCallToolErr(t, cs, "plume_create_session", map[string]any{
		"content_id": "post-1",
		"content":    testDoc,
	})
	if err == nil {
		t.Fatal("policy did not deny")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("err = %v", err)
	}
}
