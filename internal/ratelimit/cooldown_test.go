package ratelimit

import (
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCooldowns(per time.Duration) (*Cooldowns, *clock) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := New(per, 1)
	c.now = clk.now
	return c, clk
}

func TestCooldownSharedAcrossGroupAliases(t *testing.T) {
	c, clk := newTestCooldowns(time.Second)
	k := Key{UserID: 1, Group: "todo"}

	if err := c.Allow(k); err != nil {
		t.Fatalf("first call: %v", err)
	}
	clk.advance(300 * time.Millisecond)

	err := c.Allow(k)
	var ce *CooldownError
	if !errors.As(err, &ce) {
		t.Fatalf("second call err=%v, want CooldownError", err)
	}
	if ce.RetryAfter < 699*time.Millisecond || ce.RetryAfter > 701*time.Millisecond {
		t.Fatalf("retry after=%v", ce.RetryAfter)
	}
	if ce.Seconds() != "0.7" {
		t.Fatalf("seconds=%q", ce.Seconds())
	}

	// A rejected call does not extend the window.
	clk.advance(701 * time.Millisecond)
	if err := c.Allow(k); err != nil {
		t.Fatalf("after window: %v", err)
	}
}

func TestCooldownIsPerUserAndGroup(t *testing.T) {
	c, _ := newTestCooldowns(time.Second)
	for _, k := range []Key{{1, "todo"}, {2, "todo"}, {1, "help"}} {
		if err := c.Allow(k); err != nil {
			t.Fatalf("%+v: %v", k, err)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("buckets=%d", c.Len())
	}
}

func TestZeroPeriodDisables(t *testing.T) {
	c, _ := newTestCooldowns(0)
	for i := 0; i < 5; i++ {
		if err := c.Allow(Key{UserID: 1, Group: "todo"}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

func TestSetPeriodResetsAndPrune(t *testing.T) {
	c, clk := newTestCooldowns(time.Second)
	k := Key{UserID: 1, Group: "todo"}
	_ = c.Allow(k)

	c.SetPeriod(2 * time.Second)
	if err := c.Allow(k); err != nil {
		t.Fatalf("after SetPeriod: %v", err)
	}
	if c.Period() != 2*time.Second {
		t.Fatalf("period=%v", c.Period())
	}

	clk.advance(2 * time.Minute)
	_ = c.Allow(Key{UserID: 9, Group: "todo"})
	if c.Len() != 1 {
		t.Fatalf("idle bucket not pruned, len=%d", c.Len())
	}
}

func TestCooldownSecondsFormatting(t *testing.T) {
	cases := map[time.Duration]string{
		1500 * time.Millisecond: "1.5",
		423 * time.Millisecond:  "0.42",
		time.Second:             "1",
	}
	for d, want := range cases {
		if got := (&CooldownError{RetryAfter: d}).Seconds(); got != want {
			t.Fatalf("%v -> %q want %q", d, got, want)
		}
	}
}
