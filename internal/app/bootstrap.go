package app

import (
	"strconv"
	"strings"

	"todobot/internal/config"
	logx "todobot/pkg/logx"
)

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

// logTarget parses telegram.group_log. An empty or invalid value yields 0,
// which switches the Telegram sink off.
func logTarget(cfg *config.Config) (chatID int64, threadID int) {
	raw := strings.TrimSpace(cfg.Telegram.GroupLog)
	if raw == "" {
		return 0, 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, 0
	}
	return id, cfg.Logging.Telegram.ThreadID
}
