package todo

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"todobot/internal/eventbus"
	"todobot/internal/storage"
	kit "todobot/internal/transport"
	logx "todobot/pkg/logx"
	"todobot/pkg/tgui"
)

// Event types published on the bus.
const (
	EventAdded   = "todo.added"
	EventRemoved = "todo.removed"
	EventCleared = "todo.cleared"
	EventListed  = "todo.listed"
)

// AuditLog receives one entry per state-changing operation.
type AuditLog interface {
	AppendAudit(ctx context.Context, e storage.AuditEntry) error
}

// Caller describes who issued a command and where.
type Caller struct {
	User     User
	Username string
	Chat     kit.ChatTarget
	Private  bool
}

type ServiceOptions struct {
	Channel         Channel
	Audit           AuditLog
	Bus             eventbus.Bus
	Log             logx.Logger
	SelfDeleteAfter time.Duration
}

// Service runs the todo commands against a Channel.
type Service struct {
	ch    Channel
	audit AuditLog
	bus   eventbus.Bus
	log   logx.Logger

	selfDelete atomic.Int64
}

func NewService(opts ServiceOptions) *Service {
	s := &Service{
		ch:    opts.Channel,
		audit: opts.Audit,
		bus:   opts.Bus,
		log:   opts.Log.With(logx.String("comp", "todo")),
	}
	s.selfDelete.Store(int64(opts.SelfDeleteAfter))
	return s
}

// SetSelfDeleteAfter changes how long group replies stay visible.
func (s *Service) SetSelfDeleteAfter(d time.Duration) { s.selfDelete.Store(int64(d)) }

func (s *Service) SelfDeleteAfter() time.Duration { return time.Duration(s.selfDelete.Load()) }

// List shows the caller's list.
func (s *Service) List(ctx context.Context, c Caller) error {
	rec, err := FindTodoMessage(ctx, s.ch, c.User.ID)
	if err != nil {
		return err
	}
	l := Decode(rec)
	if err := s.persist(ctx, c, rec, l, ""); err != nil {
		return err
	}
	s.publish(EventListed, c, map[string]any{"entries": len(l)})
	return nil
}

// Add prepends entry to the caller's list. Rejections are reported to the
// caller and leave the stored list untouched.
func (s *Service) Add(ctx context.Context, c Caller, entry string) error {
	start := time.Now()
	entry = NormalizeEntry(entry)
	if entry == "" {
		return s.List(ctx, c)
	}
	if utf8.RuneCountInString(entry) > MaxEntryLen {
		return s.reply(ctx, c, tooLongText())
	}

	rec, err := FindTodoMessage(ctx, s.ch, c.User.ID)
	if err != nil {
		return err
	}
	l, err := Add(Decode(rec), entry)
	switch {
	case errors.Is(err, ErrEntryTooLong):
		return s.reply(ctx, c, tooLongText())
	case errors.Is(err, ErrListFull):
		return s.reply(ctx, c, listFullText())
	case err != nil:
		return err
	}
	card := Encode(l, c.User)
	if !fitsOneMessage(Outgoing{Text: addedText(entry), Card: &card}) {
		return s.reply(ctx, c, listFullText())
	}

	err = s.persist(ctx, c, rec, l, addedText(entry))
	s.record(ctx, c, "todo.add", entry, 0, err, start)
	if err != nil {
		return err
	}
	s.publish(EventAdded, c, map[string]any{"entry": entry, "entries": len(l)})
	return nil
}

// Remove drops the oldest entry containing key.
func (s *Service) Remove(ctx context.Context, c Caller, key string) error {
	start := time.Now()
	rec, err := FindTodoMessage(ctx, s.ch, c.User.ID)
	if err != nil {
		return err
	}
	l, removed, err := Remove(Decode(rec), key)
	if errors.Is(err, ErrEntryNotFound) {
		return s.reply(ctx, c, notFoundText(key))
	}

	err = s.reply(ctx, c, removedText(removed))
	if err == nil {
		err = s.persist(ctx, c, rec, l, "")
	}
	s.record(ctx, c, "todo.remove", removed, 0, err, start)
	if err != nil {
		return err
	}
	s.publish(EventRemoved, c, map[string]any{"entry": removed, "entries": len(l)})
	return nil
}

// Clear deletes every bot message in the caller's private chat and leaves
// the list empty.
func (s *Service) Clear(ctx context.Context, c Caller) error {
	start := time.Now()
	progress, err := s.ch.Send(ctx, c.Chat, Outgoing{Text: tgui.Esc("Clearing your todo list..."), UserID: c.User.ID})
	if err != nil {
		return err
	}

	deleted, err := ClearBotMessages(ctx, s.ch, c.User.ID, progress.Ref)
	for _, ref := range deleted {
		s.record(ctx, Caller{User: c.User, Username: c.Username, Chat: ref.Target()}, "todo.clear.delete", "", ref.MessageID, nil, start)
	}
	if err == nil {
		err = s.ch.Edit(ctx, progress.Ref, Outgoing{Text: tgui.Esc("Cleared your todo list!"), UserID: c.User.ID})
	}
	if err == nil {
		err = s.persist(ctx, c, nil, Clear(), "")
	}
	s.record(ctx, c, "todo.clear", "", 0, err, start)
	if err != nil {
		return err
	}
	s.publish(EventCleared, c, map[string]any{"deleted": len(deleted)})
	return nil
}

// Help sends the usage text.
func (s *Service) Help(ctx context.Context, c Caller) error {
	return s.reply(ctx, c, HelpText())
}

// persist writes l back. rec is the record found before mutating, or nil.
//
// Private chat: a fresh card replaces rec.
// Group chat: the card (with text) is posted to the group and removed after
// the self-delete delay; the private record is edited, or created with the
// same text when none existed.
// Empty list: the "nothing to do" text is sent and rec is deleted.
func (s *Service) persist(ctx context.Context, c Caller, rec *Message, l List, text tgui.H) error {
	var ttl time.Duration
	if !c.Private {
		ttl = s.SelfDeleteAfter()
	}

	if len(l) == 0 {
		if _, err := s.ch.Send(ctx, c.Chat, Outgoing{Text: nothingToDoText(), DeleteAfter: ttl, UserID: c.User.ID}); err != nil {
			return err
		}
		return s.drop(ctx, rec)
	}

	card := Encode(l, c.User)
	if c.Private {
		if _, err := s.ch.Send(ctx, c.Chat, Outgoing{Card: &card, UserID: c.User.ID}); err != nil {
			return err
		}
		return s.drop(ctx, rec)
	}

	if _, err := s.ch.Send(ctx, c.Chat, Outgoing{Text: text, Card: &card, DeleteAfter: ttl, UserID: c.User.ID}); err != nil {
		return err
	}
	if rec != nil {
		err := s.ch.Edit(ctx, rec.Ref, Outgoing{Card: &card, UserID: c.User.ID})
		if !errors.Is(err, kit.ErrMessageGone) {
			return err
		}
		s.log.Debug("todo record vanished; sending a new one", logx.Int64("user_id", c.User.ID))
	}
	dm, err := s.ch.DirectChat(ctx, c.User.ID)
	if err != nil {
		return err
	}
	_, err = s.ch.Send(ctx, dm, Outgoing{Text: text, Card: &card, UserID: c.User.ID})
	return err
}

func (s *Service) drop(ctx context.Context, rec *Message) error {
	if rec == nil {
		return nil
	}
	return s.ch.Delete(ctx, rec.Ref)
}

func (s *Service) reply(ctx context.Context, c Caller, text tgui.H) error {
	_, err := s.ch.Send(ctx, c.Chat, Outgoing{Text: text, UserID: c.User.ID})
	return err
}

func (s *Service) record(ctx context.Context, c Caller, action, target string, msgID int, opErr error, start time.Time) {
	if s.audit == nil {
		return
	}
	e := storage.AuditEntry{
		ActorID:       c.User.ID,
		ActorUsername: c.Username,
		ChatID:        c.Chat.ChatID,
		ThreadID:      c.Chat.ThreadID,
		Action:        action,
		Target:        target,
		MessageID:     msgID,
		TookMS:        time.Since(start).Milliseconds(),
	}
	if opErr != nil {
		e.Error = opErr.Error()
	}
	if err := s.audit.AppendAudit(ctx, e); err != nil {
		s.log.Warn("audit append failed", logx.String("action", action), logx.Err(err))
	}
}

func (s *Service) publish(typ string, c Caller, data map[string]any) {
	if s.bus == nil {
		return
	}
	data["user_id"] = c.User.ID
	data["chat_id"] = c.Chat.ChatID
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
