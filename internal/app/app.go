package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"todobot/internal/chatlog"
	"todobot/internal/config"
	"todobot/internal/eventbus"
	"todobot/internal/janitor"
	"todobot/internal/ratelimit"
	"todobot/internal/runtime/sdnotify"
	"todobot/internal/runtime/supervisor"
	"todobot/internal/storage"
	"todobot/internal/todo"
	kit "todobot/internal/transport"
	telegram "todobot/internal/transport/telegram/adapter"
	"todobot/internal/transport/telegram/router"
	logx "todobot/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	adapter   *telegram.Adapter
	cooldowns *ratelimit.Cooldowns
	chat      *chatlog.Log
	todo      *todo.Service
	janitor   *janitor.Janitor
	cmdm      *router.CommandManager
	sd        *sdnotify.Notifier

	settings config.Settings
	updates  chan kit.Update
}

// NewApp loads the config and wires every component. Nothing runs until
// Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfgm.SetEnv(os.Getenv)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	s, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: s.PollTimeout,
		RatePerSec:  s.RatePerSec,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	// The Telegram sink warns when enabled without a target, so the target
	// goes in before the final Apply.
	bootCfg := logConfig(cfg)
	bootCfg.Telegram.Enabled = false
	logSvc, root := logx.New(bootCfg, ad)
	logSvc.SetTelegramTarget(logTarget(cfg))
	logSvc.Apply(logConfig(cfg))
	log := root.With(logx.String("comp", "app"))

	store, err := storage.Open(storageConfig(s), root.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	log.Info("storage opened", logx.String("driver", s.StorageDriver))

	bus := eventbus.New()
	chat := chatlog.New(ad, store, root)
	svc := todo.NewService(todo.ServiceOptions{
		Channel:         chat,
		Audit:           store,
		Bus:             bus,
		Log:             root,
		SelfDeleteAfter: s.SelfDeleteAfter,
	})

	return &App{
		cfgm:      cfgm,
		log:       log,
		logs:      logSvc,
		bus:       bus,
		store:     store,
		adapter:   ad,
		cooldowns: ratelimit.New(s.Cooldown, 1),
		chat:      chat,
		todo:      svc,
		janitor:   janitor.New(janitorConfig(s), store, chat, root),
		sd:        sdnotify.New(root),
		settings:  s,
		updates:   make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(a.validate)

	a.cmdm = router.NewCommandManager(a.log, a.adapter, router.Options{
		Workers:    a.settings.Workers,
		Cooldowns:  a.cooldowns,
		Replier:    a.chat,
		Supervisor: a.sup,
	})
	a.cmdm.SetRegistry(a.todo.Commands(a.settings.CommandTimeout))

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.cmdm.DispatchLoop(c, a.updates)
	})

	if a.settings.JanitorEnabled {
		if err := a.janitor.Start(a.sup.Context()); err != nil {
			return fmt.Errorf("janitor: %w", err)
		}
	}

	a.setStatus(a.settings.Status)

	a.sup.Go0("eventbus.log", func(c context.Context) {
		eventbus.LogEvents(c, a.bus, "", a.log.With(logx.String("comp", "eventbus")))
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.sd.Ready()
	a.sd.Status(a.settings.Status)
	a.sup.Go0("systemd.watchdog", a.sd.Watchdog)

	a.log.Info("app started", logx.Int("workers", a.settings.Workers), logx.Duration("cooldown", a.settings.Cooldown))
	return nil
}

// validate gates hot reloads: a config that does not resolve is never
// committed.
func (a *App) validate(_ context.Context, cfg *config.Config) error {
	s, err := config.Resolve(cfg)
	if err != nil {
		return err
	}
	return a.janitor.Validate(janitorConfig(s))
}

func (a *App) setStatus(status string) {
	a.sup.Go("telegram.status", func(c context.Context) error {
		ctx, cancel := context.WithTimeout(c, 5*time.Second)
		defer cancel()
		if err := a.adapter.UpdateStatus(ctx, status); err != nil {
			a.log.Warn("status update failed", logx.Err(err))
		}
		return nil
	})
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sd.Stopping()
	a.sup.Cancel()

	a.step(ctx, "janitor", 2*time.Second, a.janitor.Stop)
	a.step(ctx, "adapter", 2*time.Second, a.adapter.Stop)
	// Command workers may still be writing the ledger.
	a.step(ctx, "supervisor", 3*time.Second, a.sup.Wait)
	a.step(ctx, "storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	return a.logs.Close()
}

// step runs one shutdown stage bounded by max and the caller's deadline.
// A stage that overruns is logged and left behind.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
	}
}
