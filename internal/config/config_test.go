package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestParseMissingFileUsesDefaults(t *testing.T) {
	m := NewConfigManager(filepath.Join(t.TempDir(), "absent.json"))
	m.SetEnv(func(k string) string {
		if k == "TOKEN" {
			return "from-env"
		}
		return ""
	})
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token=%q", cfg.Telegram.Token)
	}
	if cfg.Storage.Driver != "file" || !cfg.Logging.Console {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if m.Get() != cfg {
		t.Fatalf("Load did not commit")
	}
}

func TestApplyEnvPrefersTodobotToken(t *testing.T) {
	env := map[string]string{"TODOBOT_TOKEN": "a", "TOKEN": "b"}
	cfg := Default()
	cfg.Telegram.Token = "file"
	cfg.ApplyEnv(func(k string) string { return env[k] })
	if cfg.Telegram.Token != "a" {
		t.Fatalf("token=%q", cfg.Telegram.Token)
	}

	cfg = Default()
	cfg.Telegram.Token = "file"
	cfg.ApplyEnv(func(string) string { return "" })
	if cfg.Telegram.Token != "file" {
		t.Fatalf("empty env must keep the file token, got %q", cfg.Telegram.Token)
	}
}

func TestDecodeYAMLAndJSON(t *testing.T) {
	yml := []byte(`
telegram:
  poll_timeout: 20s
todo:
  cooldown: 2s
storage:
  driver: sqlite
  path: ./x.db
`)
	cfg, err := Decode("bot.yaml", yml)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if cfg.Todo.Cooldown != "2s" || cfg.Storage.Driver != "sqlite" || cfg.Telegram.PollTimeout != "20s" {
		t.Fatalf("yaml decoded wrong: %+v", cfg)
	}

	cfg, err = Decode("bot.json", []byte(`{"todo":{"self_delete_after":"30s"}}`))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if cfg.Todo.SelfDeleteAfter != "30s" {
		t.Fatalf("json decoded wrong: %+v", cfg.Todo)
	}

	if cfg, err := Decode("empty.yml", []byte("")); err != nil || cfg.Storage.Driver != "file" {
		t.Fatalf("empty yaml: cfg=%+v err=%v", cfg, err)
	}
}

func TestDecodeRejectsUnknownAndTrailing(t *testing.T) {
	cases := []struct {
		name string
		path string
		data string
	}{
		{"unknown json key", "c.json", `{"todo":{"cooldwon":"1s"}}`},
		{"unknown yaml key", "c.yaml", "plugins: {}\n"},
		{"trailing data", "c.json", `{} {}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.path, []byte(tc.data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	s, err := Resolve(Default())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Cooldown != time.Second || s.SelfDeleteAfter != time.Minute {
		t.Fatalf("todo defaults: %+v", s)
	}
	if s.Status != "watching /todo help" || s.JanitorSchedule != "@every 5s" || !s.JanitorEnabled {
		t.Fatalf("misc defaults: %+v", s)
	}
	if s.Workers != DefaultWorkers || s.RatePerSec != DefaultRatePerSec {
		t.Fatalf("telegram defaults: %+v", s)
	}
}

func TestResolveCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Todo.Cooldown = "soon"
	cfg.Storage.Driver = "redis"
	cfg.Janitor.BatchSize = -1

	_, err := Resolve(cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"todo.cooldown", "storage.driver", "janitor.batch_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestResolveMemoryNeedsNoPath(t *testing.T) {
	cfg := Default()
	cfg.Storage = StorageConfig{Driver: "memory"}
	if _, err := Resolve(cfg); err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	cfg.Storage = StorageConfig{Driver: "sqlite"}
	if _, err := Resolve(cfg); err == nil {
		t.Fatalf("sqlite without path should fail")
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 3 * time.Second, false},
		{"0s", 3 * time.Second, false},
		{" 1500ms ", 1500 * time.Millisecond, false},
		{"-1s", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDuration("x", tc.raw, 3*time.Second)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("ParseDuration(%q) = %v, %v", tc.raw, got, err)
		}
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	a := Default()
	b := Default()
	b.Todo.Cooldown = "3s"
	b.Telegram.Token = "secret"

	changed, attrs := SummarizeConfigChange(a, b)
	if !slices.Equal(changed, []string{"telegram", "todo"}) {
		t.Fatalf("changed=%v", changed)
	}
	if len(attrs) == 0 {
		t.Fatalf("no attrs")
	}
	if got := RestartRequired(changed); !slices.Equal(got, []string{"telegram"}) {
		t.Fatalf("restart=%v", got)
	}
}

func TestWatchPublishesValidatedChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.json")
	if err := os.WriteFile(path, []byte(`{"todo":{"cooldown":"1s"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.SetValidator(func(ctx context.Context, cfg *Config) error {
		_, err := Resolve(cfg)
		return err
	})
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"todo":{"cooldown":"5s"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-sub:
		if cfg.Todo.Cooldown != "5s" {
			t.Fatalf("published cooldown=%q", cfg.Todo.Cooldown)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no config published")
	}
	cancel()
	<-done
}
