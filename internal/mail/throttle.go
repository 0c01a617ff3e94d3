package mail

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle allows one message per interval for each client key.
type Throttle struct {
	mu       sync.Mutex
	every    time.Duration
	limiters map[string]*entry
	now      func() time.Time
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewThrottle(every time.Duration) *Throttle {
	return &Throttle{every: every, limiters: make(map[string]*entry), now: time.Now}
}

func (t *Throttle) Allow(key string) bool {
	if t.every <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.limiters[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Every(t.every), 1)}
		t.limiters[key] = e
	}
	e.seen = now
	if len(t.limiters) > 1024 {
		t.prune(now)
	}
	return e.lim.AllowN(now, 1)
}

func (t *Throttle) prune(now time.Time) {
	for k, e := range t.limiters {
		if now.Sub(e.seen) > 10*t.every {
			delete(t.limiters, k)
		}
	}
}
