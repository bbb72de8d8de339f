package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCooldown        = time.Second
	DefaultSelfDeleteAfter = 60 * time.Second
	DefaultCommandTimeout  = 30 * time.Second
	DefaultPollTimeout     = 10 * time.Second
	DefaultBusyTimeout     = 5 * time.Second
	DefaultRatePerSec      = 25
	DefaultWorkers         = 4
	DefaultJanitorSchedule = "@every 5s"
	DefaultJanitorBatch    = 50
	DefaultStatus          = "watching /todo help"
)

// Settings is Config with durations parsed and defaults filled in.
type Settings struct {
	PollTimeout time.Duration
	RatePerSec  int
	Workers     int

	Cooldown        time.Duration
	SelfDeleteAfter time.Duration
	CommandTimeout  time.Duration
	Status          string

	StorageDriver string
	StoragePath   string
	BusyTimeout   time.Duration

	JanitorEnabled  bool
	JanitorSchedule string
	JanitorBatch    int
	JanitorTimezone string
}

var knownDrivers = map[string]bool{"file": true, "sqlite": true, "sqlite3": true, "memory": true}

// Resolve validates cfg and returns its effective settings.
func Resolve(cfg *Config) (Settings, error) {
	if cfg == nil {
		return Settings{}, errors.New("config is nil")
	}
	var (
		s    Settings
		errs []error
		err  error
	)
	parse := func(dst *time.Duration, path, raw string, def time.Duration) {
		if *dst, err = ParseDuration(path, raw, def); err != nil {
			errs = append(errs, err)
		}
	}

	parse(&s.PollTimeout, "telegram.poll_timeout", cfg.Telegram.PollTimeout, DefaultPollTimeout)
	parse(&s.Cooldown, "todo.cooldown", cfg.Todo.Cooldown, DefaultCooldown)
	parse(&s.SelfDeleteAfter, "todo.self_delete_after", cfg.Todo.SelfDeleteAfter, DefaultSelfDeleteAfter)
	parse(&s.CommandTimeout, "todo.command_timeout", cfg.Todo.CommandTimeout, DefaultCommandTimeout)
	parse(&s.BusyTimeout, "storage.busy_timeout", cfg.Storage.BusyTimeout, DefaultBusyTimeout)

	s.RatePerSec = orDefault(cfg.Telegram.RatePerSec, DefaultRatePerSec)
	s.Workers = orDefault(cfg.Telegram.Workers, DefaultWorkers)
	if cfg.Telegram.RatePerSec < 0 {
		errs = append(errs, errors.New("telegram.rate_per_sec must be >= 0"))
	}
	if cfg.Telegram.Workers < 0 {
		errs = append(errs, errors.New("telegram.workers must be >= 0"))
	}

	s.Status = strings.TrimSpace(cfg.Todo.Status)
	if s.Status == "" {
		s.Status = DefaultStatus
	}

	s.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if s.StorageDriver == "" {
		s.StorageDriver = "file"
	}
	if !knownDrivers[s.StorageDriver] {
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver))
	}
	s.StoragePath = strings.TrimSpace(cfg.Storage.Path)
	if s.StoragePath == "" && s.StorageDriver != "memory" {
		errs = append(errs, fmt.Errorf("storage.path is required for driver %q", s.StorageDriver))
	}

	s.JanitorEnabled = cfg.Janitor.IsEnabled()
	s.JanitorSchedule = strings.TrimSpace(cfg.Janitor.Schedule)
	if s.JanitorSchedule == "" {
		s.JanitorSchedule = DefaultJanitorSchedule
	}
	if cfg.Janitor.BatchSize < 0 {
		errs = append(errs, errors.New("janitor.batch_size must be >= 0"))
	}
	s.JanitorBatch = orDefault(cfg.Janitor.BatchSize, DefaultJanitorBatch)
	s.JanitorTimezone = strings.TrimSpace(cfg.Janitor.Timezone)
	if s.JanitorTimezone != "" {
		if _, err := time.LoadLocation(s.JanitorTimezone); err != nil {
			errs = append(errs, fmt.Errorf("janitor.timezone: %w", err))
		}
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	return s, nil
}

// ApplyEnv overrides the bot token from TODOBOT_TOKEN, then TOKEN.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for _, k := range []string{"TODOBOT_TOKEN", "TOKEN"} {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			c.Telegram.Token = v
			return
		}
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
