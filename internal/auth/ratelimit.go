package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles login attempts per client IP so credential stuffing
// cannot hammer the bcrypt path. Idle entries are pruned opportunistically.
type loginLimiter struct {
	mu       sync.Mutex
	perIP    map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLoginLimiter(perMinute, burst int) *loginLimiter {
	return &loginLimiter{
		perIP:    map[string]*limiterEntry{},
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		lastSeen: 10 * time.Minute,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if len(l.perIP) > 1024 {
		for ip, e := range l.perIP {
			if now.Sub(e.seen) > l.lastSeen {
				delete(l.perIP, ip)
			}
		}
	}

	e, ok := l.perIP[ip]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.perIP[ip] = e
	}
	e.seen = now
	return e.lim.Allow()
}
