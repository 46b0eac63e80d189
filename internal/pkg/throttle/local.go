package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/baginvent/passcode/internal/pkg/clock"
	"golang.org/x/time/rate"
)

const pruneThreshold = 10_000

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	idle     time.Duration
}

// Local implements Throttle with in-process token buckets. Limits are per
// process, so replicas each enforce their own.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	clock   clock.Clocker
}

// NewLocal returns an in-process Throttle reading time from c.
func NewLocal(c clock.Clocker) *Local {
	if c == nil {
		c = clock.New()
	}
	return &Local{buckets: make(map[string]*bucket), clock: c}
}

func (l *Local) Cooldown(_ context.Context, key string, d time.Duration) (bool, time.Duration, error) {
	ok, wait := l.take("cooldown:"+key, rate.Every(d), 1, d)
	return ok, wait, nil
}

func (l *Local) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit < 1 {
		limit = 1
	}
	ok, wait := l.take("window:"+key, rate.Every(window/time.Duration(limit)), limit, window)
	return ok, wait, nil
}

func (l *Local) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, "cooldown:"+key)
	delete(l.buckets, "window:"+key)
	l.mu.Unlock()
	return nil
}

func (l *Local) take(key string, every rate.Limit, burst int, idle time.Duration) (bool, time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) > pruneThreshold {
		l.prune(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{limiter: rate.NewLimiter(every, burst), idle: idle}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, idle
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}

	return true, 0
}

func (l *Local) prune(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > b.idle {
			delete(l.buckets, k)
		}
	}
}
