// Package ratelimit throttles requests per client address with token buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL  = 10 * time.Minute
	defaultSweepGap = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key. Buckets idle for longer than the
// idle TTL are dropped by Run.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// New returns a limiter admitting rps requests per second per key with the
// given burst.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
	}
}

// Allow reports whether a request for key may proceed. An empty key (address
// unknown) is always allowed.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	now := l.now()
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep drops buckets not used since idleTTL and returns how many it dropped.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for k, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, k)
			n++
		}
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	t := time.NewTicker(defaultSweepGap)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
