package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todobot/internal/storage"
	"todobot/internal/todo"
)

func seeded(t *testing.T) storage.Store {
	t.Helper()
	ctx := context.Background()
	st := storage.NewMemory()
	card := todo.Encode(todo.List{"wash hands", "buy milk"}, todo.User{ID: 42, DisplayName: "Ann"})
	recs := []storage.MessageRecord{
		{ChatID: 42, MessageID: 1, SentAt: time.Unix(100, 0), Text: "hello"},
		{ChatID: 42, MessageID: 2, SentAt: time.Unix(200, 0),
			Card: &storage.CardRecord{Title: card.Title, Description: card.Description, Footer: card.Footer}},
		{ChatID: -100, MessageID: 7, SentAt: time.Unix(300, 0), Text: "added", ExpireAt: time.Unix(360, 0)},
	}
	for _, r := range recs {
		if err := st.PutMessage(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	_ = st.AppendAudit(ctx, storage.AuditEntry{ActorID: 42, ActorUsername: "ann", ChatID: 42, Action: "todo.add", Target: "buy milk"})
	_ = st.AppendAudit(ctx, storage.AuditEntry{ActorID: 42, ChatID: 42, Action: "todo.remove", Error: "entry not found"})
	return st
}

func TestShowCommand(t *testing.T) {
	st := seeded(t)
	var out bytes.Buffer
	if err := showCommand(context.Background(), st, []string{"-user", "42"}, &out); err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Todo list of Ann", "wash hands", "buy milk", "message 2"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output misses %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := showCommand(context.Background(), st, []string{"-user", "7"}, &out); err != nil {
		t.Fatalf("show empty: %v", err)
	}
	if !strings.Contains(out.String(), "nothing to do") {
		t.Fatalf("empty output: %s", out.String())
	}

	if err := showCommand(context.Background(), st, nil, &out); err == nil {
		t.Fatalf("missing -user accepted")
	}
}

func TestLedgerCommand(t *testing.T) {
	st := seeded(t)
	var out bytes.Buffer
	if err := ledgerCommand(context.Background(), st, []string{"-chat", "-100"}, &out); err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if !strings.Contains(out.String(), "expires") || strings.Count(out.String(), "\n") != 1 {
		t.Fatalf("ledger output:\n%s", out.String())
	}
}

func TestAuditCommand(t *testing.T) {
	st := seeded(t)
	var out bytes.Buffer
	if err := auditCommand(context.Background(), st, []string{"-n", "1"}, &out); err != nil {
		t.Fatalf("audit: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "todo.remove") || strings.Contains(got, "todo.add") || !strings.Contains(got, "entry not found") {
		t.Fatalf("audit output:\n%s", got)
	}
}

func TestRunRejectsMemoryDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	if err := os.WriteFile(path, []byte(`{"storage":{"driver":"memory"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", path, "audit"}, &out)
	if err == nil || !strings.Contains(err.Error(), "memory") {
		t.Fatalf("err=%v", err)
	}
}
