package app

import (
	"testing"
	"time"

	"todobot/internal/config"
)

func TestLogTarget(t *testing.T) {
	cases := []struct {
		name     string
		groupLog string
		thread   int
		chat     int64
		wantTh   int
	}{
		{"unset", "", 5, 0, 0},
		{"numeric", " -1001234 ", 5, -1001234, 5},
		{"garbage", "@ops", 5, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Telegram.GroupLog = tc.groupLog
			cfg.Logging.Telegram.ThreadID = tc.thread
			chat, th := logTarget(cfg)
			if chat != tc.chat || th != tc.wantTh {
				t.Fatalf("logTarget=%d,%d", chat, th)
			}
		})
	}
}

func TestLogConfigMapsEveryField(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"
	cfg.Logging.File = config.LoggingFile{Enabled: true, Path: "/tmp/x.log"}
	cfg.Logging.Telegram = config.LoggingTelegram{Enabled: true, ThreadID: 3, MinLevel: "error", RatePerSec: 2}

	got := logConfig(cfg)
	if got.Level != "debug" || !got.Console || !got.File.Enabled || got.File.Path != "/tmp/x.log" {
		t.Fatalf("base fields: %+v", got)
	}
	if !got.Telegram.Enabled || got.Telegram.ThreadID != 3 || got.Telegram.MinLevel != "error" || got.Telegram.RatePerSec != 2 {
		t.Fatalf("telegram fields: %+v", got.Telegram)
	}
}

func TestSettingsMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "sqlite", Path: "./t.db", BusyTimeout: "2s"}
	cfg.Janitor = config.JanitorConfig{Schedule: "*/10 * * * * *", BatchSize: 7, Timezone: "UTC"}
	s, err := config.Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	sc := storageConfig(s)
	if sc.Driver != "sqlite" || sc.Path != "./t.db" || sc.BusyTimeout != 2*time.Second {
		t.Fatalf("storage: %+v", sc)
	}
	jc := janitorConfig(s)
	if jc.Schedule != "*/10 * * * * *" || jc.BatchSize != 7 || jc.Timezone != "UTC" {
		t.Fatalf("janitor: %+v", jc)
	}
}
