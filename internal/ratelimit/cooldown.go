// Package ratelimit holds per-user command cooldowns.
package ratelimit

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CooldownError is returned when a command arrives before its window ends.
// The command is dropped, not queued.
type CooldownError struct {
	Group      string
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Group, e.RetryAfter)
}

// Seconds renders RetryAfter with two significant digits ("0.42", "1.5").
func (e *CooldownError) Seconds() string {
	return strconv.FormatFloat(e.RetryAfter.Seconds(), 'g', 2, 64)
}

// Key identifies one cooldown slot. Every alias of a command group maps to
// the same Group, so they share the slot.
type Key struct {
	UserID int64
	Group  string
}

const pruneEvery = time.Minute

// Cooldowns is a set of token buckets keyed by (user, group).
type Cooldowns struct {
	mu        sync.Mutex
	per       time.Duration
	burst     int
	buckets   map[Key]*rate.Limiter
	lastPrune time.Time

	now func() time.Time
}

// New allows burst invocations per user and group every per.
func New(per time.Duration, burst int) *Cooldowns {
	if burst < 1 {
		burst = 1
	}
	return &Cooldowns{per: per, burst: burst, buckets: map[Key]*rate.Limiter{}, now: time.Now}
}

// SetPeriod changes the window. Existing buckets are dropped.
func (c *Cooldowns) SetPeriod(per time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if per == c.per {
		return
	}
	c.per = per
	c.buckets = map[Key]*rate.Limiter{}
}

func (c *Cooldowns) Period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.per
}

// Allow consumes the slot for k, or returns *CooldownError with the
// remaining wait. A zero period disables cooldowns.
func (c *Cooldowns) Allow(k Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.per <= 0 {
		return nil
	}
	now := c.now()
	c.pruneLocked(now)

	lim := c.buckets[k]
	if lim == nil {
		lim = rate.NewLimiter(rate.Every(c.per), c.burst)
		c.buckets[k] = lim
	}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return &CooldownError{Group: k.Group, RetryAfter: c.per}
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return &CooldownError{Group: k.Group, RetryAfter: d}
	}
	return nil
}

// Len reports the number of tracked buckets.
func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// pruneLocked forgets buckets that have refilled completely.
func (c *Cooldowns) pruneLocked(now time.Time) {
	if now.Sub(c.lastPrune) < pruneEvery {
		return
	}
	c.lastPrune = now
	for k, lim := range c.buckets {
		if lim.TokensAt(now) >= float64(c.burst) {
			delete(c.buckets, k)
		}
	}
}
