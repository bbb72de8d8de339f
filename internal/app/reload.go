package app

import (
	"context"
	"strings"

	"todobot/internal/config"
	logx "todobot/pkg/logx"
)

func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: only the newest config matters.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						next = newer
					}
				default:
					break drain
				}
			}
			a.applyConfig(ctx, last, next)
			last = next
		}
	}
}

// applyConfig pushes the live-tunable parts of next into the running
// components. next has already passed validate.
func (a *App) applyConfig(ctx context.Context, prev, next *config.Config) {
	changed, attrs := config.SummarizeConfigChange(prev, next)
	if len(changed) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	s, err := config.Resolve(next)
	if err != nil {
		a.log.Warn("invalid config; keeping previous", logx.Err(err))
		return
	}
	old := a.settings

	a.logs.SetTelegramTarget(logTarget(next))
	a.logs.Apply(logConfig(next))

	if s.Cooldown != old.Cooldown {
		a.cooldowns.SetPeriod(s.Cooldown)
	}
	if s.SelfDeleteAfter != old.SelfDeleteAfter {
		a.todo.SetSelfDeleteAfter(s.SelfDeleteAfter)
	}
	if s.CommandTimeout != old.CommandTimeout {
		a.cmdm.SetRegistry(a.todo.Commands(s.CommandTimeout))
	}
	if s.RatePerSec != old.RatePerSec {
		a.adapter.SetRate(s.RatePerSec)
	}
	if s.Status != old.Status {
		a.setStatus(s.Status)
		a.sd.Status(s.Status)
	}
	a.applyJanitor(ctx, old, s)

	if restart := config.RestartRequired(changed); len(restart) > 0 {
		a.log.Warn("config sections changed that need a restart", logx.String("sections", strings.Join(restart, ",")))
	}
	a.settings = s

	fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) applyJanitor(ctx context.Context, old, s config.Settings) {
	if err := a.janitor.Apply(janitorConfig(s)); err != nil {
		a.log.Warn("janitor config rejected", logx.Err(err))
		return
	}
	switch {
	case old.JanitorEnabled && !s.JanitorEnabled:
		a.log.Info("janitor disabled via config")
		if err := a.janitor.Stop(ctx); err != nil {
			a.log.Warn("janitor stop", logx.Err(err))
		}
	case !old.JanitorEnabled && s.JanitorEnabled:
		a.log.Info("janitor enabled via config")
		if err := a.janitor.Start(a.sup.Context()); err != nil {
			a.log.Warn("janitor start", logx.Err(err))
		}
	}
}
