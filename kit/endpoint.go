// Package kit holds the transport-agnostic request plumbing shared by
// every tool: endpoints, middleware chaining, and the MCP adapter.
package kit

import "context"

// Endpoint is a transport-agnostic handler: decoded request in,
// serializable response out.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
