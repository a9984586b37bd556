package util

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// unknownHost buckets URLs that do not parse to a host.
const unknownHost = "_"

// HostLimiter hands out one token bucket per host. Every adapter that
// talks to the same API host draws from the same bucket.
type HostLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewHostLimiter allows reqPerSec requests per host with the given burst
// (at least 1).
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   max(burst, 1),
		buckets: map[string]*rate.Limiter{},
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	b, ok := hl.buckets[host]
	if !ok {
		b = rate.NewLimiter(hl.limit, hl.burst)
		hl.buckets[host] = b
	}
	return b
}

// WaitURL blocks until the host of raw may be called again. A nil
// limiter never blocks.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	if hl == nil {
		return nil
	}
	host := unknownHost
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = u.Host
	}
	return hl.limiterFor(host).Wait(ctx)
}
