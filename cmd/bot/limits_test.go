package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestUserLimiter_Allow(t *testing.T) {
	l := newUserLimiter(rate.Every(time.Hour), 1)

	require.True(t, l.Allow("u1"))
	require.False(t, l.Allow("u1"), "second creation within the window must be throttled")

	// Other users have their own bucket.
	require.True(t, l.Allow("u2"))
	require.False(t, l.Allow("u2"))
}

func TestUserLimiter_Refill(t *testing.T) {
	l := newUserLimiter(rate.Every(10*time.Millisecond), 1)

	require.True(t, l.Allow("u1"))
	require.False(t, l.Allow("u1"))

	time.Sleep(20 * time.Millisecond)
	require.True(t, l.Allow("u1"))
}
