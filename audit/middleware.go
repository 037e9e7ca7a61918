// CLAUDE:SUMMARY Endpoint middleware recording every tool call into the audit trail.
package audit

import (
	"context"
	"time"

	"github.com/hazyhaar/plume/kit"
)

// Middleware records each endpoint invocation: parameters, result or error,
// duration and the caller's session handle from context. A nil logger is a
// no-op so callers can wire auditing conditionally.
func Middleware(logger *Logger, toolName string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		if logger == nil {
			return next
		}
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			e := logger.NewEntry(toolName, req, resp, err, time.Since(start))
			e.SessionHandle = kit.GetSession(ctx)
			e.RequestID = kit.GetRequestID(ctx)
			logger.LogAsync(e)

			return resp, err
		}
	}
}
