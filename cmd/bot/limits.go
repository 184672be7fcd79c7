package main

import (
	"sync"

	"golang.org/x/time/rate"
)

// userLimiter throttles ticket creation per user. Limiters are created
// lazily and never evicted; the map is bounded by the number of users that
// have ever opened the menu.
type userLimiter struct {
	mu sync.Mutex

	users map[string]*rate.Limiter

	r rate.Limit
	b int
}

func newUserLimiter(r rate.Limit, b int) *userLimiter {
	return &userLimiter{
		users: make(map[string]*rate.Limiter),
		r:     r,
		b:     b,
	}
}

// Allow reports whether the user may create a ticket now.
func (l *userLimiter) Allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.users[userID]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.users[userID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
