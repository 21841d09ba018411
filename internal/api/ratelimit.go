package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 30 * time.Minute
	limiterSweepEvery = 5 * time.Minute
)

type ipLimiter struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	last    time.Time
	evicted bool
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	limiters  sync.Map // map[string]*ipLimiter
	sweepMu   sync.Mutex
	lastSweep time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{rps: rate.Limit(rps), burst: burst, now: time.Now, lastSweep: time.Now()}
}

func (l *ipRateLimiter) allow(ip string) bool {
	now := l.now()
	il := l.touch(ip, now)
	l.sweep(now)
	return il.limiter.AllowN(now, 1)
}

// touch returns the live limiter for ip and marks it used. An entry evicted
// by a concurrent sweep is replaced.
func (l *ipRateLimiter) touch(ip string, now time.Time) *ipLimiter {
	for {
		v, _ := l.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)})
		il := v.(*ipLimiter)
		il.mu.Lock()
		if il.evicted {
			il.mu.Unlock()
			continue
		}
		il.last = now
		il.mu.Unlock()
		return il
	}
}

// sweep drops limiters of clients that have been idle for a while.
func (l *ipRateLimiter) sweep(now time.Time) {
	l.sweepMu.Lock()
	if now.Sub(l.lastSweep) < limiterSweepEvery {
		l.sweepMu.Unlock()
		return
	}
	l.lastSweep = now
	l.sweepMu.Unlock()

	l.limiters.Range(func(key, val any) bool {
		il := val.(*ipLimiter)
		il.mu.Lock()
		if now.Sub(il.last) > limiterIdleTTL {
			il.evicted = true
			l.limiters.CompareAndDelete(key, il)
		}
		il.mu.Unlock()
		return true
	})
}

func (l *ipRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			write(w, JSON(http.StatusTooManyRequests, map[string]string{"Error": "Too many requests"}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP reads RemoteAddr, which chi's RealIP middleware has already
// replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
