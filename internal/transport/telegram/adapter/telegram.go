package adapter

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	rtsup "todobot/internal/runtime/supervisor"
	kit "todobot/internal/transport"
	logx "todobot/pkg/logx"
	"todobot/pkg/tgui"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	// RatePerSec bounds outbound API calls (0 means unlimited).
	RatePerSec int
	// APIURL overrides https://api.telegram.org (tests).
	APIURL string
}

const defaultAPIURL = "https://api.telegram.org"

type Adapter struct {
	cfg Config
	log logx.Logger

	bot     *tele.Bot
	out     atomic.Value // stores (chan<- kit.Update)
	runMu   sync.Mutex
	running bool

	// sup owns adapter goroutines (poll loop, drop logger, stop watcher).
	// It is created on Start() and cancelled on Stop().
	sup *rtsup.Supervisor

	droppedUpdates atomic.Uint64

	limiter *rate.Limiter

	menuMu     sync.Mutex
	menuHash   uint64
	statusHash uint64
	http       *http.Client
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	b, err := tele.NewBot(tele.Settings{
		URL:    cfg.APIURL,
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{
		cfg:     cfg,
		log:     log.With(logx.String("comp", "telegram.adapter")),
		bot:     b,
		limiter: newLimiter(cfg.RatePerSec),
		http:    &http.Client{Timeout: 8 * time.Second},
	}
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.registerHandlers()
	return a, nil
}

func newLimiter(perSec int) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSec), perSec)
}

// SetRate changes the outbound API rate.
func (a *Adapter) SetRate(perSec int) {
	if perSec <= 0 {
		a.limiter.SetLimit(rate.Inf)
		return
	}
	a.limiter.SetLimit(rate.Limit(perSec))
	a.limiter.SetBurst(perSec)
}

func (a *Adapter) wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.limiter.Wait(ctx)
}

func (a *Adapter) registerHandlers() {
	// Handlers forward to the CURRENT output channel. Start() may swap it.
	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		if m := c.Message(); m != nil && m.Sender != nil && m.Chat != nil {
			a.sendUpdate(kit.Update{Kind: kit.UpdateMessage, Message: toMessage(m)})
		}
		return nil
	})
}

func toMessage(m *tele.Message) *kit.Message {
	return &kit.Message{
		ID:              m.ID,
		ChatID:          m.Chat.ID,
		ThreadID:        m.ThreadID,
		FromID:          m.Sender.ID,
		FromUsername:    m.Sender.Username,
		FromDisplayName: strings.TrimSpace(m.Sender.FirstName + " " + m.Sender.LastName),
		Text:            m.Text,
		IsPrivate:       m.Chat.Type == tele.ChatPrivate,
		IsGroup:         m.Chat.Type == tele.ChatGroup || m.Chat.Type == tele.ChatSuperGroup,
	}
}

func (a *Adapter) sendUpdate(up kit.Update) {
	out, _ := a.out.Load().(chan<- kit.Update)
	if out == nil {
		return
	}
	select {
	case out <- up:
	default:
		a.droppedUpdates.Add(1)
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- kit.Update) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.out.Store(out)
	a.sup = rtsup.New(ctx,
		rtsup.WithLogger(a.log),
		// adapter errors should not take down the whole app
		rtsup.WithCancelOnError(false),
	)
	sup := a.sup
	a.runMu.Unlock()

	reportDrops := func() {
		if n := a.droppedUpdates.Swap(0); n > 0 {
			a.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n), logx.Int("chan_cap", cap(out)))
		}
	}
	sup.Go0("updates.drop_report", func(c context.Context) {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				reportDrops()
				return
			case <-ticker.C:
				reportDrops()
			}
		}
	})

	sup.Go0("telebot.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		a.bot.Stop()
	})

	// Start blocks until Stop(). Restart it if it returns while the
	// context is still active.
	sup.GoRestart0("telebot.poll", func(c context.Context) {
		a.log.Info("polling started")
		a.bot.Start()
		a.log.Info("polling stopped")
	},
		rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
		rtsup.WithStopOnCleanExit(false),
	)
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	sup := a.sup
	a.sup = nil
	wasRunning := a.running
	a.running = false
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.runMu.Unlock()

	if !wasRunning || sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.Uint64("dropped_updates_pending", a.droppedUpdates.Load()))
	sup.Cancel()

	// Keep shutdown snappy even if getUpdates is still waiting.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	wctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	if err := sup.Wait(wctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			a.log.Warn("telegram stop timed out", logx.Err(err))
			return nil
		}
		a.log.Debug("telegram stopped with supervisor error", logx.Err(err))
	}
	return nil
}

func sendOptions(to kit.ChatTarget, opt *kit.SendOptions) *tele.SendOptions {
	so := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
		ThreadID:              to.ThreadID,
	}
	if opt.ReplyTo != 0 {
		so.ReplyTo = &tele.Message{ID: opt.ReplyTo}
	}
	return so
}

// SendText sends text, split into several messages when it is too long.
// The returned ref is the first message.
func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chat := &tele.Chat{ID: to.ChatID}

	var first kit.MessageRef
	for i, chunk := range splitTelegramText(text, telegramTextLimit, opt.ParseMode) {
		if err := a.wait(ctx); err != nil {
			return first, err
		}
		so := sendOptions(to, opt)
		if i > 0 {
			so.ReplyTo = nil
		}
		msg, err := a.bot.Send(chat, chunk, so)
		if err != nil {
			return first, classifyAPIError(err)
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}
	return first, nil
}

// EditText replaces the text of ref. Overflow beyond one message is sent
// as new messages.
func (a *Adapter) EditText(ctx context.Context, ref kit.MessageRef, text string, opt *kit.SendOptions) error {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chunks := splitTelegramText(text, telegramTextLimit, opt.ParseMode)

	if err := a.wait(ctx); err != nil {
		return err
	}
	m := &tele.Message{ID: ref.MessageID, Chat: &tele.Chat{ID: ref.ChatID}}
	if _, err := a.bot.Edit(m, chunks[0], &tele.SendOptions{ParseMode: opt.ParseMode, DisableWebPagePreview: opt.DisablePreview}); err != nil {
		if err = classifyAPIError(err); err != nil {
			return err
		}
	}

	if len(chunks) > 1 {
		rest := strings.Join(chunks[1:], "\n")
		if _, err := a.SendText(ctx, ref.Target(), rest, &kit.SendOptions{ParseMode: opt.ParseMode, DisablePreview: opt.DisablePreview}); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMessage deletes ref. A message that no longer exists (or can no
// longer be deleted) yields kit.ErrMessageGone.
func (a *Adapter) DeleteMessage(ctx context.Context, ref kit.MessageRef) error {
	if err := a.wait(ctx); err != nil {
		return err
	}
	err := a.bot.Delete(&tele.Message{ID: ref.MessageID, Chat: &tele.Chat{ID: ref.ChatID}})
	return classifyAPIError(err)
}

// classifyAPIError maps Telegram errors onto transport errors. An edit
// that changes nothing is not an error.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "message is not modified"):
		return nil
	case strings.Contains(s, "message to delete not found"),
		strings.Contains(s, "message to edit not found"),
		strings.Contains(s, "message can't be deleted"),
		strings.Contains(s, "message can't be edited"):
		return errors.Join(kit.ErrMessageGone, err)
	}
	return err
}

// UpdateMenuCommands updates Telegram's global /menu command list (setMyCommands).
// It only performs a network call when the command list changes.
func (a *Adapter) UpdateMenuCommands(ctx context.Context, cmds []kit.BotCommand) error {
	a.menuMu.Lock()
	defer a.menuMu.Unlock()

	h := fnv.New64a()
	type cmd struct {
		Command     string `json:"command"`
		Description string `json:"description"`
	}
	payload := struct {
		Commands []cmd `json:"commands"`
	}{Commands: make([]cmd, 0, len(cmds))}
	for _, c := range cmds {
		if c.Command == "" {
			continue
		}
		d := c.Description
		if d == "" {
			d = c.Command
		}
		payload.Commands = append(payload.Commands, cmd{Command: c.Command, Description: d})
		h.Write([]byte(c.Command + "\x00" + d + "\x00"))
		if len(payload.Commands) >= 100 {
			break
		}
	}
	sum := h.Sum64()
	if sum == a.menuHash {
		return nil
	}
	if err := a.callAPI(ctx, "setMyCommands", payload); err != nil {
		return err
	}
	a.menuHash = sum
	a.log.Info("menu commands updated", logx.Int("count", len(payload.Commands)))
	return nil
}

// UpdateStatus sets the bot short description, the line shown on the
// bot's profile and in chat lists.
func (a *Adapter) UpdateStatus(ctx context.Context, status string) error {
	a.menuMu.Lock()
	defer a.menuMu.Unlock()

	status = strings.TrimSpace(status)
	h := fnv.New64a()
	h.Write([]byte(status))
	sum := h.Sum64()
	if sum == a.statusHash {
		return nil
	}
	status = tgui.TruncRunes(status, 120)
	if err := a.callAPI(ctx, "setMyShortDescription", map[string]string{"short_description": status}); err != nil {
		return err
	}
	a.statusHash = sum
	a.log.Info("status updated", logx.String("status", status))
	return nil
}
