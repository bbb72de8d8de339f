package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings ("500ms", "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Todo     TodoConfig     `json:"todo"`
	Storage  StorageConfig  `json:"storage"`
	Janitor  JanitorConfig  `json:"janitor"`
}

type TelegramConfig struct {
	// Token is usually left empty and supplied through TODOBOT_TOKEN / TOKEN.
	Token    string `json:"token,omitempty"`
	GroupLog string `json:"group_log,omitempty"`
	// PollTimeout is the long-poll timeout (default "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// RatePerSec caps outbound API calls (default 25).
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// Workers is the size of the command worker pool (default 4).
	Workers int `json:"workers,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// TodoConfig tunes the /todo command group.
//
// Defaults:
//   - cooldown: "1s" (one command per user per window, shared by every alias)
//   - self_delete_after: "60s" (group replies)
//   - command_timeout: "30s"
//   - status: "watching /todo help"
type TodoConfig struct {
	Cooldown        string `json:"cooldown,omitempty"`
	SelfDeleteAfter string `json:"self_delete_after,omitempty"`
	CommandTimeout  string `json:"command_timeout,omitempty"`
	Status          string `json:"status,omitempty"`
}

// StorageConfig selects the message ledger backend.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/todobot.db" }
type StorageConfig struct {
	Driver      string `json:"driver"` // file | sqlite | memory
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// JanitorConfig controls the sweep that deletes expired group replies.
type JanitorConfig struct {
	// Enabled is a pointer so an omitted section defaults to on.
	Enabled   *bool  `json:"enabled,omitempty"`
	Schedule  string `json:"schedule,omitempty"` // cron spec, default "@every 5s"
	BatchSize int    `json:"batch_size,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

func (j JanitorConfig) IsEnabled() bool { return j.Enabled == nil || *j.Enabled }

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Storage: StorageConfig{Driver: "file", Path: "./data/todobot"},
	}
}
