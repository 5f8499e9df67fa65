package verify

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// domainLimiter enforces a minimum interval between requests to the same
// host, shared across all concurrent verifications in the process.
type domainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval func(domain string) time.Duration
}

func newDomainLimiter(interval func(domain string) time.Duration) *domainLimiter {
	return &domainLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until a request to rawURL's host is permitted or ctx is done.
func (d *domainLimiter) Wait(ctx context.Context, rawURL string) error {
	return d.limiterFor(hostOf(rawURL)).Wait(ctx)
}

func (d *domainLimiter) limiterFor(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.limiters[domain]; ok {
		return l
	}
	interval := d.interval(domain)
	if interval <= 0 {
		interval = time.Second
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	d.limiters[domain] = l
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
