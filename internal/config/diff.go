package config

import (
	"sort"
	"strings"

	logx "todobot/pkg/logx"
)

// SummarizeConfigChange lists the changed sections and returns log fields
// describing the new values. Secrets (the token) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	var (
		changed []string
		attrs   []logx.Field
	)
	trim := strings.TrimSpace

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if trim(ot.PollTimeout) != trim(nt.PollTimeout) || trim(ot.GroupLog) != trim(nt.GroupLog) ||
		ot.RatePerSec != nt.RatePerSec || ot.Workers != nt.Workers || trim(ot.Token) != trim(nt.Token) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.poll_timeout", trim(nt.PollTimeout)),
			logx.Int("telegram.rate_per_sec", nt.RatePerSec),
			logx.Int("telegram.workers", nt.Workers),
			logx.Bool("telegram.group_log_set", trim(nt.GroupLog) != ""),
			logx.Bool("telegram.token_changed", trim(ot.Token) != trim(nt.Token)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	if oldCfg.Todo != newCfg.Todo {
		changed = append(changed, "todo")
		attrs = append(attrs,
			logx.String("todo.cooldown", trim(newCfg.Todo.Cooldown)),
			logx.String("todo.self_delete_after", trim(newCfg.Todo.SelfDeleteAfter)),
			logx.String("todo.command_timeout", trim(newCfg.Todo.CommandTimeout)),
		)
	}

	if oldCfg.Storage != newCfg.Storage {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", trim(newCfg.Storage.Driver)),
			logx.Bool("storage.path_set", trim(newCfg.Storage.Path) != ""),
			logx.String("storage.busy_timeout", trim(newCfg.Storage.BusyTimeout)),
		)
	}

	oj, nj := oldCfg.Janitor, newCfg.Janitor
	if oj.IsEnabled() != nj.IsEnabled() || trim(oj.Schedule) != trim(nj.Schedule) ||
		oj.BatchSize != nj.BatchSize || trim(oj.Timezone) != trim(nj.Timezone) {
		changed = append(changed, "janitor")
		attrs = append(attrs,
			logx.Bool("janitor.enabled", nj.IsEnabled()),
			logx.String("janitor.schedule", trim(nj.Schedule)),
			logx.Int("janitor.batch_size", nj.BatchSize),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

// RestartRequired reports sections that only take effect after a restart.
func RestartRequired(changed []string) []string {
	var out []string
	for _, c := range changed {
		switch c {
		case "telegram", "storage":
			out = append(out, c)
		}
	}
	return out
}
