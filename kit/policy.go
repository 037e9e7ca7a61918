// CLAUDE:SUMMARY Role-based tool access policy: static rule table evaluated per call from the context role.
package kit

import (
	"context"
	"fmt"
)

// PolicyFunc decides whether the current caller may execute the named tool.
// A nil error means allowed.
type PolicyFunc func(ctx context.Context, toolName string) error

// RolePolicy builds a PolicyFunc from a static tool→allowed-roles table.
//
// Evaluation logic:
//   - No entry for the tool → allow (default open).
//   - Entry exists and contains "*" or the caller's role → allow.
//   - Entry exists but the role does not match → deny.
//
// An empty context role matches only "*".
func RolePolicy(rules map[string][]string) PolicyFunc {
	return func(ctx context.Context, toolName string) error {
		allowed, ok := rules[toolName]
		if !ok {
			return nil
		}
		role := GetRole(ctx)
		for _, r := range allowed {
			if r == "*" || r == role {
				return nil
			}
		}
		return fmt.Errorf("tool %q not allowed for role %q", toolName, role)
	}
}

// PolicyMiddleware enforces a policy before the endpoint runs.
func PolicyMiddleware(policy PolicyFunc, toolName string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			if policy != nil {
				if err := policy(ctx, toolName); err != nil {
					return nil, err
				}
			}
			return next(ctx, req)
		}
	}
}
