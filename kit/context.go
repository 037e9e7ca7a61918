// CLAUDE:SUMMARY Typed context carriers for request-scoped identity: session handle, role, request id, transport.
package kit

import "context"

type contextKey string

const (
	SessionKey   contextKey = "kit_session"
	RoleKey      contextKey = "kit_role"
	RequestIDKey contextKey = "kit_request_id"
	TransportKey contextKey = "kit_transport" // "mcp", "http"
)

func WithSession(ctx context.Context, handle string) context.Context {
	return context.WithValue(ctx, SessionKey, handle)
}
func GetSession(ctx context.Context) string {
	v, _ := ctx.Value(SessionKey).(string)
	return v
}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}
func GetRole(ctx context.Context) string {
	v, _ := ctx.Value(RoleKey).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "mcp"
}
