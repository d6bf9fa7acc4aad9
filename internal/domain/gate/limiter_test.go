package gate

import (
	"testing"
	"time"

	"finance-app-go/internal/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func TestLimiterSlidingWindow(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)}
	limiter := NewLimiter("cleanup", 2, time.Hour)
	limiter.now = clock.Now

	require.NoError(t, limiter.Allow("owner-1"))
	clock.Advance(20 * time.Minute)
	require.NoError(t, limiter.Allow("owner-1"))

	err := limiter.Allow("owner-1")
	assert.ErrorIs(t, err, errs.ErrRateLimited)
	assert.Contains(t, err.Error(), "40m0s")
	assert.Equal(t, 0, limiter.Remaining("owner-1"))

	require.NoError(t, limiter.Allow("owner-2"))

	clock.Advance(40*time.Minute + time.Second)
	assert.Equal(t, 1, limiter.Remaining("owner-1"))
	require.NoError(t, limiter.Allow("owner-1"))
	assert.ErrorIs(t, limiter.Allow("owner-1"), errs.ErrRateLimited)
}

func TestLimiterDisabled(t *testing.T) {
	limiter := NewLimiter("cleanup", 0, time.Hour)
	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Allow("owner-1"))
	}

	var nilLimiter *Limiter
	assert.NoError(t, nilLimiter.Allow("owner-1"))
}

func TestLimiterReset(t *testing.T) {
	limiter := NewLimiter("cleanup", 1, time.Hour)
	require.NoError(t, limiter.Allow("owner-1"))
	require.Error(t, limiter.Allow("owner-1"))

	limiter.Reset("owner-1")
	assert.NoError(t, limiter.Allow("owner-1"))
}
