// Package chatlog is the Telegram side of the todo Channel port.
//
// Telegram bots cannot read chat history, so every message the bot sends is
// recorded in a storage ledger together with its card. History reads the
// ledger back; edits and deletions keep it in step with the chat.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todobot/internal/storage"
	"todobot/internal/todo"
	kit "todobot/internal/transport"
	logx "todobot/pkg/logx"
	"todobot/pkg/tgui"
)

// Messenger is the part of the transport adapter chatlog needs.
type Messenger interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error)
	EditText(ctx context.Context, ref kit.MessageRef, text string, opt *kit.SendOptions) error
	DeleteMessage(ctx context.Context, ref kit.MessageRef) error
}

// Ledger is the part of storage chatlog needs.
type Ledger interface {
	PutMessage(ctx context.Context, rec storage.MessageRecord) error
	ListMessages(ctx context.Context, chatID int64) ([]storage.MessageRecord, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

type Log struct {
	msg    Messenger
	ledger Ledger
	log    logx.Logger
	now    func() time.Time
}

var _ todo.Channel = (*Log)(nil)

func New(m Messenger, l Ledger, log logx.Logger) *Log {
	return &Log{msg: m, ledger: l, log: log.With(logx.String("comp", "chatlog")), now: time.Now}
}

var sendOpts = &kit.SendOptions{ParseMode: tgui.ParseModeHTML, DisablePreview: true}

// DirectChat returns the private chat with userID. In Telegram its chat id
// is the user id; it exists once the user has started the bot.
func (l *Log) DirectChat(ctx context.Context, userID int64) (kit.ChatTarget, error) {
	if userID == 0 {
		return kit.ChatTarget{}, errors.New("chatlog: no user")
	}
	return kit.ChatTarget{ChatID: userID}, nil
}

// History returns the recorded bot messages of chat, newest first.
func (l *Log) History(ctx context.Context, chat kit.ChatTarget) ([]todo.Message, error) {
	recs, err := l.ledger.ListMessages(ctx, chat.ChatID)
	if err != nil {
		return nil, fmt.Errorf("chatlog: history: %w", err)
	}
	out := make([]todo.Message, 0, len(recs))
	for _, r := range recs {
		out = append(out, toMessage(r))
	}
	return out, nil
}

func (l *Log) Send(ctx context.Context, to kit.ChatTarget, out todo.Outgoing) (todo.Message, error) {
	ref, err := l.msg.SendText(ctx, to, todo.Render(out).String(), sendOpts)
	if err != nil {
		return todo.Message{}, err
	}
	now := l.now()
	rec := storage.MessageRecord{
		ChatID:    ref.ChatID,
		ThreadID:  ref.ThreadID,
		MessageID: ref.MessageID,
		UserID:    out.UserID,
		Card:      toRecord(out.Card),
		Text:      out.Text.String(),
		SentAt:    now,
	}
	if out.DeleteAfter > 0 {
		rec.ExpireAt = now.Add(out.DeleteAfter)
	}
	if err := l.ledger.PutMessage(ctx, rec); err != nil {
		return toMessage(rec), fmt.Errorf("chatlog: record message %d: %w", ref.MessageID, err)
	}
	return toMessage(rec), nil
}

// Reply sends a plain text message and records it, so router notices in a
// private chat are cleared along with the rest.
func (l *Log) Reply(ctx context.Context, to kit.ChatTarget, text tgui.H) error {
	_, err := l.Send(ctx, to, todo.Outgoing{Text: text})
	return err
}

// Edit replaces the message text. When the message is gone its ledger
// record is dropped and kit.ErrMessageGone is returned.
func (l *Log) Edit(ctx context.Context, ref kit.MessageRef, out todo.Outgoing) error {
	if err := l.msg.EditText(ctx, ref, todo.Render(out).String(), sendOpts); err != nil {
		if errors.Is(err, kit.ErrMessageGone) {
			l.forget(ctx, ref)
		}
		return err
	}

	rec := storage.MessageRecord{ChatID: ref.ChatID, ThreadID: ref.ThreadID, MessageID: ref.MessageID, SentAt: l.now()}
	if prev, ok := l.lookup(ctx, ref); ok {
		rec = prev
	}
	rec.Card = toRecord(out.Card)
	rec.Text = out.Text.String()
	if out.UserID != 0 {
		rec.UserID = out.UserID
	}
	if err := l.ledger.PutMessage(ctx, rec); err != nil {
		return fmt.Errorf("chatlog: record edit %d: %w", ref.MessageID, err)
	}
	return nil
}

// Delete removes the message and its record. A message that is already
// gone only loses its record.
func (l *Log) Delete(ctx context.Context, ref kit.MessageRef) error {
	if err := l.msg.DeleteMessage(ctx, ref); err != nil && !errors.Is(err, kit.ErrMessageGone) {
		return err
	}
	if err := l.ledger.DeleteMessage(ctx, ref.ChatID, ref.MessageID); err != nil {
		return fmt.Errorf("chatlog: forget %d: %w", ref.MessageID, err)
	}
	return nil
}

func (l *Log) forget(ctx context.Context, ref kit.MessageRef) {
	if err := l.ledger.DeleteMessage(ctx, ref.ChatID, ref.MessageID); err != nil {
		l.log.Warn("ledger delete failed", logx.Int64("chat_id", ref.ChatID), logx.Int("message_id", ref.MessageID), logx.Err(err))
	}
}

func (l *Log) lookup(ctx context.Context, ref kit.MessageRef) (storage.MessageRecord, bool) {
	recs, err := l.ledger.ListMessages(ctx, ref.ChatID)
	if err != nil {
		return storage.MessageRecord{}, false
	}
	for _, r := range recs {
		if r.MessageID == ref.MessageID {
			return r, true
		}
	}
	return storage.MessageRecord{}, false
}

func toRecord(c *todo.Card) *storage.CardRecord {
	if c == nil {
		return nil
	}
	return &storage.CardRecord{Title: c.Title, Description: c.Description, Footer: c.Footer}
}

func toMessage(r storage.MessageRecord) todo.Message {
	m := todo.Message{
		Ref:     kit.MessageRef{ChatID: r.ChatID, ThreadID: r.ThreadID, MessageID: r.MessageID},
		FromBot: true,
		Text:    r.Text,
		SentAt:  r.SentAt,
	}
	if r.Card != nil {
		m.Card = &todo.Card{Title: r.Card.Title, Description: r.Card.Description, Footer: r.Card.Footer}
	}
	return m
}
