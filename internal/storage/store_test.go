package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "todobot/pkg/logx"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Store{"memory": NewMemory()}

	fs, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "file", "todobot")}, logx.Nop())
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	out["file"] = fs

	ss, err := Open(Config{Driver: "sqlite", Path: filepath.Join(dir, "todobot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	out["sqlite"] = ss

	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestLedgerOrderingAndReplace(t *testing.T) {
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []int{10, 30, 20} {
				rec := MessageRecord{ChatID: 7, MessageID: id, SentAt: base.Add(time.Duration(i) * time.Second), Text: "t"}
				if err := st.PutMessage(ctx, rec); err != nil {
					t.Fatalf("put %d: %v", id, err)
				}
			}
			card := &CardRecord{Title: "T", Description: "* a", Footer: "F"}
			if err := st.PutMessage(ctx, MessageRecord{ChatID: 7, MessageID: 20, SentAt: base, Card: card}); err != nil {
				t.Fatalf("replace: %v", err)
			}
			if err := st.PutMessage(ctx, MessageRecord{ChatID: 8, MessageID: 99, SentAt: base}); err != nil {
				t.Fatalf("other chat: %v", err)
			}

			got, err := st.ListMessages(ctx, 7)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 3 || got[0].MessageID != 30 || got[1].MessageID != 20 || got[2].MessageID != 10 {
				t.Fatalf("order: %+v", got)
			}
			if got[1].Card == nil || *got[1].Card != *card || got[1].Text != "" {
				t.Fatalf("replaced record: %+v", got[1])
			}

			if err := st.DeleteMessage(ctx, 7, 30); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := st.DeleteMessage(ctx, 7, 12345); err != nil {
				t.Fatalf("delete unknown: %v", err)
			}
			got, _ = st.ListMessages(ctx, 7)
			if len(got) != 2 || got[0].MessageID != 20 {
				t.Fatalf("after delete: %+v", got)
			}
		})
	}
}

func TestExpiredMessages(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			recs := []MessageRecord{
				{ChatID: 1, MessageID: 1, SentAt: now, ExpireAt: now.Add(-time.Second)},
				{ChatID: 2, MessageID: 5, SentAt: now, ExpireAt: now.Add(-time.Minute)},
				{ChatID: 1, MessageID: 2, SentAt: now, ExpireAt: now.Add(time.Minute)},
				{ChatID: 1, MessageID: 3, SentAt: now},
				{ChatID: 3, MessageID: 9, SentAt: now, ExpireAt: now},
			}
			for _, r := range recs {
				if err := st.PutMessage(ctx, r); err != nil {
					t.Fatalf("put: %v", err)
				}
			}
			got, err := st.ExpiredMessages(ctx, now, 0)
			if err != nil {
				t.Fatalf("expired: %v", err)
			}
			if len(got) != 3 || got[0].MessageID != 5 || got[1].MessageID != 1 || got[2].MessageID != 9 {
				t.Fatalf("expired order: %+v", got)
			}
			got, _ = st.ExpiredMessages(ctx, now, 2)
			if len(got) != 2 {
				t.Fatalf("limit ignored: %d", len(got))
			}
		})
	}
}

func TestAuditNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, a := range []string{"todo.add", "todo.remove", "todo.clear"} {
				if err := st.AppendAudit(ctx, AuditEntry{ActorID: 1, ChatID: 1, Action: a}); err != nil {
					t.Fatalf("audit: %v", err)
				}
			}
			got, err := st.RecentAudit(ctx, 2)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if len(got) != 2 || got[0].Action != "todo.clear" || got[1].Action != "todo.remove" {
				t.Fatalf("audit order: %+v", got)
			}
			if got[0].At.IsZero() {
				t.Fatalf("At not stamped")
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger")
	cfg := Config{Driver: "file", Path: path}

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sent := time.UnixMilli(1_700_000_000_123)
	_ = st.PutMessage(ctx, MessageRecord{ChatID: 1, MessageID: 1, SentAt: sent, Card: &CardRecord{Footer: "f"}})
	_ = st.PutMessage(ctx, MessageRecord{ChatID: 1, MessageID: 2, SentAt: sent})
	_ = st.DeleteMessage(ctx, 1, 1)
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, _ := st.ListMessages(ctx, 1)
	if len(got) != 1 || got[0].MessageID != 2 || !got[0].SentAt.Equal(sent) {
		t.Fatalf("reopened ledger: %+v", got)
	}
}

func TestClosedMemoryStore(t *testing.T) {
	st := NewMemory()
	_ = st.Close()
	if err := st.PutMessage(context.Background(), MessageRecord{ChatID: 1, MessageID: 1}); err != ErrClosed {
		t.Fatalf("err=%v", err)
	}
}
