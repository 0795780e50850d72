package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(60, 2)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = clock

	require.True(t, rl.allow("10.0.0.1"))
	require.True(t, rl.allow("10.0.0.2"))
	assert.Len(t, rl.clients, 2)

	clock = clock.Add(rl.idle / 2)
	require.True(t, rl.allow("10.0.0.2"))

	clock = clock.Add(rl.idle / 2)
	require.True(t, rl.allow("10.0.0.3"))
	assert.Len(t, rl.clients, 2)
	assert.NotContains(t, rl.clients, "10.0.0.1")
	assert.Contains(t, rl.clients, "10.0.0.2")
	assert.Contains(t, rl.clients, "10.0.0.3")
}

func TestRateLimiter_KeepsActiveBucket(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, 2)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = clock

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	clock = clock.Add(time.Minute)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
}

func TestRateLimiter_IdleCoversRefill(t *testing.T) {
	assert.Equal(t, rateLimiterIdle, newRateLimiter(60, 20).idle)
	assert.Equal(t, 30*time.Minute, newRateLimiter(1, 30).idle)
}
