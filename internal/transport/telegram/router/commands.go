package router

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"todobot/internal/ratelimit"
	"todobot/internal/runtime/supervisor"
	kit "todobot/internal/transport"
	logx "todobot/pkg/logx"
	"todobot/pkg/tgui"
)

// ArgPolicy says what a command accepts after its route.
type ArgPolicy int

const (
	ArgsAny ArgPolicy = iota
	ArgsNone
	ArgsRequired
)

type Command struct {
	// Route is a space-separated command path, e.g.:
	//   "todo"
	//   "todo add"
	Route string
	// Aliases are alternative names for the last route token,
	// e.g. Route "todo add" with Aliases ["+", "a"] matches "/todo + milk".
	Aliases     []string
	Description string
	Usage       string
	Args        ArgPolicy
	// Cooldown names the shared cooldown slot. Commands with the same
	// Cooldown consume the same per-user slot; empty means none.
	Cooldown string
	// Hidden keeps the command out of the Telegram menu.
	Hidden  bool
	Timeout time.Duration
	Handle  HandlerFunc
}

type Request struct {
	Message *kit.Message
	Chat    kit.ChatTarget
	FromID  int64
	Path    []string // matched canonical route tokens
	Command string   // canonical route
	// Tail is the message text after the matched route, trimmed but
	// otherwise verbatim.
	Tail  string
	Args  []string
	ReqID string

	Adapter kit.Adapter
	Logger  logx.Logger
}

// Options tunes a CommandManager.
// Replier sends the router's own replies: help, usage, cooldown and
// unknown-command notices.
type Replier interface {
	Reply(ctx context.Context, to kit.ChatTarget, text tgui.H) error
}

type adapterReplier struct{ adapter kit.Adapter }

func (r adapterReplier) Reply(ctx context.Context, to kit.ChatTarget, text tgui.H) error {
	_, err := r.adapter.SendText(ctx, to, text.String(), &kit.SendOptions{ParseMode: tgui.ParseModeHTML, DisablePreview: true})
	return err
}

type Options struct {
	Workers   int
	Cooldowns *ratelimit.Cooldowns
	// Replier defaults to sending straight through the adapter.
	Replier Replier
	// Supervisor runs background work such as the menu update.
	Supervisor *supervisor.Supervisor
}

type CommandManager struct {
	mu   sync.RWMutex
	root *cmdNode
	cmds []Command

	log       logx.Logger
	adapter   kit.Adapter
	replier   Replier
	cooldowns *ratelimit.Cooldowns
	workers   int
	sup       *supervisor.Supervisor

	jobs chan func()
}

const defaultWorkers = 4

func NewCommandManager(log logx.Logger, adapter kit.Adapter, opt Options) *CommandManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	w := opt.Workers
	if w <= 0 {
		w = defaultWorkers
	}
	r := opt.Replier
	if r == nil {
		r = adapterReplier{adapter: adapter}
	}
	return &CommandManager{
		root:      newRoot(),
		log:       log.With(logx.String("comp", "telegram.router")),
		adapter:   adapter,
		replier:   r,
		cooldowns: opt.Cooldowns,
		workers:   w,
		sup:       opt.Supervisor,
		jobs:      make(chan func(), 256),
	}
}

// tryEnqueue is a panic-safe enqueue helper (handles the jobs channel being closed).
func (m *CommandManager) tryEnqueue(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case m.jobs <- fn:
		return true
	default:
		return false
	}
}

// SetRegistry replaces the command set. /help and /start are always added.
func (m *CommandManager) SetRegistry(cmds []Command) {
	helper := Command{
		Route:       "help",
		Aliases:     []string{"start"},
		Description: "show available commands",
		Usage:       "/help [cmd] [sub...]",
		Hidden:      true,
		Handle: func(ctx context.Context, req *Request) error {
			return m.replier.Reply(ctx, req.Chat, m.helpText(req.Args))
		},
	}
	cmds = append(append([]Command(nil), cmds...), helper)

	root := newRoot()
	kept := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		route := splitRoute(c.Route)
		if len(route) == 0 || c.Handle == nil {
			continue
		}
		c.Route = strings.Join(route, " ")
		root.add(route, c)
		kept = append(kept, c)
	}

	m.mu.Lock()
	m.root = root
	m.cmds = kept
	m.mu.Unlock()

	up, ok := m.adapter.(kit.CommandMenuUpdater)
	if !ok {
		return
	}
	menu := buildTelegramMenuCommands(root, kept)
	run := func(parent context.Context) error {
		ctx, cancel := context.WithTimeout(parent, 5*time.Second)
		defer cancel()
		if err := up.UpdateMenuCommands(ctx, menu); err != nil {
			m.log.Warn("menu update failed", logx.Err(err))
		}
		return nil
	}
	if m.sup != nil {
		m.sup.Go("telegram.menu.update", run)
	} else {
		go func() { _ = run(context.Background()) }()
	}
}

// DispatchLoop routes updates until ctx ends or updates is closed.
// Commands run on a bounded worker pool.
func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	sup := supervisor.New(ctx,
		supervisor.WithLogger(m.log),
		supervisor.WithCancelOnError(false),
	)
	m.log.Info("command dispatcher started", logx.Int("workers", m.workers), logx.Int("job_queue_cap", cap(m.jobs)))

	for i := 0; i < m.workers; i++ {
		idx := i
		sup.GoRestart("command.worker."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, ok := <-m.jobs:
					if !ok {
						return nil
					}
					func() {
						defer func() {
							if r := recover(); r != nil {
								m.log.Error("panic in command job", logx.Int("worker", idx), logx.Any("panic", r), logx.Stack(string(debug.Stack())))
							}
						}()
						job()
					}()
				}
			}
		},
			supervisor.WithRestartBackoff(200*time.Millisecond, 5*time.Second),
			supervisor.WithStopOnCleanExit(true),
		)
	}

	defer func() {
		close(m.jobs)
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Kind == kit.UpdateMessage && up.Message != nil {
				m.routeMessage(ctx, up.Message)
			}
		}
	}
}

// match resolves text to a command. It returns nil when text is not a
// command this manager knows.
func (m *CommandManager) match(text string) (cmd *Command, path []string, tail string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil, nil, ""
	}
	word, rest := cutWord(text[1:])
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}

	m.mu.RLock()
	root := m.root
	m.mu.RUnlock()

	cur, ok := root.child(word)
	if !ok {
		return nil, nil, ""
	}
	path = []string{cur.name}
	for rest != "" {
		nxt, after := cutWord(rest)
		child, ok := cur.child(nxt)
		if !ok {
			break
		}
		cur = child
		path = append(path, cur.name)
		rest = after
	}
	return cur.cmd, path, rest
}

func (m *CommandManager) routeMessage(ctx context.Context, msg *kit.Message) {
	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}
	cmd, path, tail := m.match(msg.Text)
	if path == nil {
		if msg.IsPrivate && strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
			m.reply(ctx, chat, tgui.Concat(tgui.Esc("unknown command. try "), tgui.Code("/help")))
		}
		return
	}
	if cmd == nil {
		m.reply(ctx, chat, m.helpText(path))
		return
	}

	args := strings.Fields(tail)
	if (cmd.Args == ArgsNone && len(args) > 0) || (cmd.Args == ArgsRequired && len(args) == 0) {
		m.reply(ctx, chat, usageText(*cmd))
		return
	}

	if m.cooldowns != nil && cmd.Cooldown != "" {
		err := m.cooldowns.Allow(ratelimit.Key{UserID: msg.FromID, Group: cmd.Cooldown})
		var cd *ratelimit.CooldownError
		if errors.As(err, &cd) {
			m.log.Debug("command on cooldown", logx.Int64("from_id", msg.FromID), logx.String("cmd", cmd.Route), logx.Duration("retry_after", cd.RetryAfter))
			m.reply(ctx, chat, cooldownText(cd))
			return
		}
	}

	rid := newReqID()
	req := &Request{
		Message: msg,
		Chat:    chat,
		FromID:  msg.FromID,
		Path:    path,
		Command: cmd.Route,
		Tail:    tail,
		Args:    args,
		ReqID:   rid,
		Adapter: m.adapter,
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", cmd.Route),
		),
	}

	final := Chain(
		cmd.Handle,
		MWPanicRecover(m.log),
		MWRequestLog(m.log),
		MWTimeout(cmd.Timeout),
	)
	if !m.tryEnqueue(func() { _ = final(ctx, req) }) {
		m.log.Warn("command queue full; dropping", logx.String("cmd", cmd.Route))
		m.reply(ctx, chat, tgui.Esc("busy, try again"))
	}
}

// reply sends a short router-level message off the dispatch loop.
func (m *CommandManager) reply(ctx context.Context, to kit.ChatTarget, text tgui.H) {
	send := func() {
		if err := m.replier.Reply(ctx, to, text); err != nil {
			m.log.Debug("router reply failed", logx.Int64("chat_id", to.ChatID), logx.Err(err))
		}
	}
	if !m.tryEnqueue(send) {
		m.log.Debug("router reply dropped", logx.Int64("chat_id", to.ChatID))
	}
}

func cooldownText(e *ratelimit.CooldownError) tgui.H {
	return tgui.Esc("You're on cooldown now. Wait " + e.Seconds() + " seconds.")
}

func usageText(c Command) tgui.H {
	u := strings.TrimSpace(c.Usage)
	if u == "" {
		u = "/" + c.Route
	}
	return tgui.Concat(tgui.Esc("usage: "), tgui.Code(u))
}
