package eventbus

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	logx "todobot/pkg/logx"
)

func TestPrefixFilter(t *testing.T) {
	b := New()
	todo, unsubTodo := b.Subscribe("todo.", 4)
	defer unsubTodo()
	all, unsubAll := b.Subscribe("", 4)
	defer unsubAll()

	b.Publish(Event{Type: "todo.added"})
	b.Publish(Event{Type: "janitor.swept"})

	if e := <-todo; e.Type != "todo.added" || e.Time.IsZero() {
		t.Fatalf("todo sub got %+v", e)
	}
	select {
	case e := <-todo:
		t.Fatalf("unexpected %q", e.Type)
	default:
	}
	if len(all) != 2 {
		t.Fatalf("catch-all got %d events", len(all))
	}
}

func TestFullBufferDrops(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe("", 1)
	defer unsub()

	b.Publish(Event{Type: "a"})
	b.Publish(Event{Type: "b"})
	b.Publish(Event{Type: "c"})
	if got := b.Dropped(); got != 2 {
		t.Fatalf("dropped=%d", got)
	}
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 1)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatalf("channel still open")
	}
	b.Publish(Event{Type: "after"})
	if b.Dropped() != 0 {
		t.Fatalf("publish after unsubscribe counted a drop")
	}
}

func TestLogEvents(t *testing.T) {
	var buf syncBuffer
	log := logx.NewWriter(&buf, "debug")
	b := New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		LogEvents(ctx, b, "todo.", log)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "todo.cleared") {
		if time.Now().After(deadline) {
			t.Fatalf("event not logged: %q", buf.String())
		}
		b.Publish(Event{Type: "todo.cleared", Data: map[string]any{"deleted": 3}})
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
