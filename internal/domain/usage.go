package domain

import "context"

type usageKey struct{}

// TokenUsage collects provider token usage for a single request.
// The handler puts a mutable pointer into the context before calling the
// service; services add after each provider call; the handler reads it
// for response headers.
type TokenUsage struct {
	TotalTokens int
	Used        bool // true if a provider was called, even when 0 tokens were reported
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(usageKey{}).(*TokenUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *TokenUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
