package session

import "context"

type ctxKey int

const contextKey ctxKey = iota

// With returns a context carrying the request's session context, so
// layers that only see a context.Context (the upstream client's 401 hook)
// can still reach the session.
func With(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey, sc)
}

// From extracts the session context, or nil when the request has none.
func From(ctx context.Context) *Context {
	sc, _ := ctx.Value(contextKey).(*Context)
	return sc
}
