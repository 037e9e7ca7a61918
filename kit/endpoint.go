// CLAUDE:SUMMARY Transport-agnostic endpoint abstraction: Endpoint func type plus middleware chaining.
// Package kit holds the transport plumbing shared by every tool surface:
// endpoints, middleware, context carriers, and the MCP registration helper.
package kit

import "context"

// Endpoint is a single transport-agnostic operation. Tool surfaces decode
// their wire format into a typed request, invoke the endpoint, and encode the
// response back out.
type Endpoint func(ctx context.Context, request any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is outermost.
func Chain(mw ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}
