package sdnotify

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	logx "todobot/pkg/logx"
)

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states)
}

func TestLifecycleStates(t *testing.T) {
	rec := &recorder{}
	n := New(logx.Nop())
	n.notify = rec.notify

	n.Ready()
	n.Status("watching /todo help")
	n.Stopping()
	want := []string{"READY=1", "STATUS=watching /todo help", "STOPPING=1"}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Fatalf("states=%q", got)
	}
}

func TestWatchdog(t *testing.T) {
	rec := &recorder{}
	n := New(logx.Nop())
	n.notify = rec.notify

	n.watchdog = func(bool) (time.Duration, error) { return 0, nil }
	n.Watchdog(context.Background()) // off: returns at once

	n.watchdog = func(bool) (time.Duration, error) { return 40 * time.Millisecond, nil }
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	n.Watchdog(ctx)

	got := rec.snapshot()
	if len(got) < 2 || got[0] != "WATCHDOG=1" {
		t.Fatalf("states=%q", got)
	}
}
