// Package janitor deletes self-deleting bot messages once their time is up.
//
// Expiry lives in the message ledger, so messages scheduled before a
// restart are still removed afterwards.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"todobot/internal/storage"
	kit "todobot/internal/transport"
	logx "todobot/pkg/logx"
)

// Source lists ledger records whose expiry has passed, oldest expiry first.
type Source interface {
	ExpiredMessages(ctx context.Context, now time.Time, limit int) ([]storage.MessageRecord, error)
}

// Deleter deletes a message and its ledger record.
type Deleter interface {
	Delete(ctx context.Context, ref kit.MessageRef) error
}

type Config struct {
	Schedule  string // cron spec, e.g. "@every 5s" or "*/10 * * * * *"
	BatchSize int
	Timezone  string
}

type Janitor struct {
	mu  sync.Mutex
	cfg Config
	c   *cron.Cron
	ctx context.Context
	on  bool // between Start and Stop

	src    Source
	del    Deleter
	log    logx.Logger
	parser cron.Parser

	sweeping atomic.Bool
	now      func() time.Time
}

func New(cfg Config, src Source, del Deleter, log logx.Logger) *Janitor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Janitor{
		cfg: cfg,
		src: src,
		del: del,
		log: log.With(logx.String("comp", "janitor")),
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:    time.Now,
	}
}

// Validate checks cfg without starting anything.
func (j *Janitor) Validate(cfg Config) error {
	if _, err := j.parser.Parse(strings.TrimSpace(cfg.Schedule)); err != nil {
		return fmt.Errorf("janitor schedule %q: %w", cfg.Schedule, err)
	}
	if _, err := loadLocation(cfg.Timezone); err != nil {
		return err
	}
	return nil
}

// Start schedules sweeps and runs one right away to catch up on messages
// that expired while the bot was down.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.c != nil {
		return nil
	}
	j.ctx = ctx
	if err := j.startLocked(); err != nil {
		return err
	}
	j.on = true
	go j.run()
	return nil
}

func (j *Janitor) startLocked() error {
	cfg := j.cfg
	if err := j.Validate(cfg); err != nil {
		return err
	}
	loc, _ := loadLocation(cfg.Timezone)
	c := cron.New(cron.WithParser(j.parser), cron.WithLocation(loc))
	if _, err := c.AddFunc(strings.TrimSpace(cfg.Schedule), j.run); err != nil {
		return err
	}
	c.Start()
	j.c = c
	j.log.Info("janitor started", logx.String("schedule", cfg.Schedule), logx.Int("batch", cfg.BatchSize))
	return nil
}

// Stop halts scheduling and waits for a running sweep, up to ctx.
func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	c := j.c
	j.c = nil
	j.on = false
	j.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply swaps the config, restarting the schedule when it changed. Jobs
// take j.mu, so it is released while the old schedule drains.
func (j *Janitor) Apply(cfg Config) error {
	if err := j.Validate(cfg); err != nil {
		return err
	}
	j.mu.Lock()
	old := j.cfg
	j.cfg = cfg
	c := j.c
	if c == nil || (old.Schedule == cfg.Schedule && old.Timezone == cfg.Timezone) {
		j.mu.Unlock()
		return nil
	}
	j.c = nil
	j.mu.Unlock()

	<-c.Stop().Done()

	j.mu.Lock()
	defer j.mu.Unlock()
	// Stopped or restarted by someone else meanwhile.
	if !j.on || j.c != nil {
		return nil
	}
	return j.startLocked()
}

func (j *Janitor) run() {
	j.mu.Lock()
	ctx := j.ctx
	j.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if _, err := j.Sweep(ctx); err != nil {
		j.log.Warn("sweep finished with errors", logx.Err(err))
	}
}

// Sweep deletes one batch of expired messages, oldest expiry first and one
// at a time. A failed deletion keeps its record for the next sweep.
// Overlapping calls return immediately.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	if !j.sweeping.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer j.sweeping.Store(false)

	j.mu.Lock()
	batch := j.cfg.BatchSize
	j.mu.Unlock()

	recs, err := j.src.ExpiredMessages(ctx, j.now(), batch)
	if err != nil {
		return 0, err
	}
	var (
		n    int
		errs []error
	)
	for _, r := range recs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		ref := kit.MessageRef{ChatID: r.ChatID, ThreadID: r.ThreadID, MessageID: r.MessageID}
		if err := j.del.Delete(ctx, ref); err != nil {
			errs = append(errs, fmt.Errorf("delete %d/%d: %w", r.ChatID, r.MessageID, err))
			continue
		}
		n++
	}
	if n > 0 {
		j.log.Debug("expired messages deleted", logx.Int("count", n))
	}
	return n, errors.Join(errs...)
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("janitor timezone %q: %w", name, err)
	}
	return loc, nil
}
