package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limiterFor(t *testing.T, l *ipRateLimiter, ip string) *ipLimiter {
	t.Helper()
	v, ok := l.limiters.Load(ip)
	require.True(t, ok)
	return v.(*ipLimiter)
}

func TestSweepEvictsIdleClients(t *testing.T) {
	start := time.Now()
	l := newIPRateLimiter(1, 1)
	l.lastSweep = start
	l.now = func() time.Time { return start }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	old := limiterFor(t, l, "10.0.0.1")

	later := start.Add(limiterIdleTTL + time.Second)
	l.sweep(later)
	_, ok := l.limiters.Load("10.0.0.1")
	assert.False(t, ok)
	assert.True(t, old.evicted)

	fresh := l.touch("10.0.0.1", later)
	assert.NotSame(t, old, fresh)
	assert.False(t, fresh.evicted)
}

func TestSweepKeepsClientTouchedSinceIdleCheck(t *testing.T) {
	start := time.Now()
	l := newIPRateLimiter(0.0001, 1)
	l.lastSweep = start

	il := l.touch("10.0.0.2", start)
	require.True(t, il.limiter.AllowN(start, 1))
	later := start.Add(limiterIdleTTL + time.Second)

	// The client comes back just before the sweep runs.
	assert.Same(t, il, l.touch("10.0.0.2", later))
	l.sweep(later)

	assert.Same(t, il, limiterFor(t, l, "10.0.0.2"))
	assert.False(t, il.evicted)
	assert.False(t, il.limiter.AllowN(later, 1), "bucket must not be reset")
}
