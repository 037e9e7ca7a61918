package kit

import (
	"context"
	"errors"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"), mw("c"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	noop := func(next Endpoint) Endpoint { return next }
	chained := Chain(noop)(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestContext_Session(t *testing.T) {
	ctx := context.Background()
	if v := GetSession(ctx); v != "" {
		t.Fatalf("empty context: got %q", v)
	}

	ctx = WithSession(ctx, "ses_123")
	if v := GetSession(ctx); v != "ses_123" {
		t.Fatalf("after set: got %q", v)
	}
}

func TestContext_Role(t *testing.T) {
	ctx := WithRole(context.Background(), "editor")
	if v := GetRole(ctx); v != "editor" {
		t.Fatalf("role: got %q", v)
	}
}

func TestContext_Transport_Default(t *testing.T) {
	if v := GetTransport(context.Background()); v != "mcp" {
		t.Fatalf("default transport: got %q, want 'mcp'", v)
	}
}

func TestContext_RequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req_abc")
	if v := GetRequestID(ctx); v != "req_abc" {
		t.Fatalf("request_id: got %q", v)
	}
}

func TestRolePolicy_DefaultOpen(t *testing.T) {
	p := RolePolicy(map[string][]string{"plume_sync": {"editor"}})
	if err := p(context.Background(), "plume_list_blocks"); err != nil {
		t.Fatalf("unlisted tool denied: %v", err)
	}
}

func TestRolePolicy_RoleMatch(t *testing.T) {
	p := RolePolicy(map[string][]string{"plume_sync": {"editor"}})

	ctx := WithRole(context.Background(), "editor")
	if err := p(ctx, "plume_sync"); err != nil {
		t.Fatalf("matching role denied: %v", err)
	}

	ctx = WithRole(context.Background(), "viewer")
	if err := p(ctx, "plume_sync"); err == nil {
		t.Fatal("non-matching role allowed")
	}

	if err := p(context.Background(), "plume_sync"); err == nil {
		t.Fatal("empty role allowed against explicit rule")
	}
}

func TestRolePolicy_Wildcard(t *testing.T) {
	p := RolePolicy(map[string][]string{"plume_read_block": {"*"}})
	if err := p(context.Background(), "plume_read_block"); err != nil {
		t.Fatalf("wildcard denied: %v", err)
	}
}

func TestPolicyMiddleware_Blocks(t *testing.T) {
	deny := func(_ context.Context, tool string) error {
		return errors.New("denied: " + tool)
	}
	called := false
	base := func(_ context.Context, _ any) (any, error) {
		called = true
		return nil, nil
	}

	_, err := PolicyMiddleware(deny, "plume_sync")(base)(context.Background(), nil)
	if err == nil {
		t.Fatal("expected policy error")
	}
	if called {
		t.Fatal("endpoint ran despite denial")
	}
}
