package ratelimit

import (
	"context"
	"time"
)

// Result is the admission decision for one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or denies requests per client key. The key is derived from
// the first X-Forwarded-For hop and is a spoofable, best-effort identity,
// not a security boundary.
type Limiter interface {
	Check(ctx context.Context, clientKey string) (Result, error)
}
