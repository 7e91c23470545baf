package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// maxTracked bounds the number of usernames the throttle remembers.
const maxTracked = 10000

// Throttle limits login attempts per username. A limiter left idle for a full
// refill window is forgotten, since a fresh one behaves the same.
type Throttle struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewThrottle allows perMinute attempts per username, with the same burst.
// A non-positive perMinute disables throttling.
func NewThrottle(perMinute int) *Throttle {
	if perMinute <= 0 {
		return nil
	}
	return &Throttle{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTracked, nil, time.Minute),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow consumes one attempt for username.
func (t *Throttle) Allow(username string) bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	l, ok := t.limiters.Get(username)
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
	}
	// Re-adding restarts the idle window.
	t.limiters.Add(username, l)
	t.mu.Unlock()
	return l.Allow()
}

// Reset forgets username's history after a successful login.
func (t *Throttle) Reset(username string) {
	if t == nil {
		return
	}
	t.limiters.Remove(username)
}

// Tracked returns the number of usernames currently remembered.
func (t *Throttle) Tracked() int {
	if t == nil {
		return 0
	}
	return t.limiters.Len()
}
