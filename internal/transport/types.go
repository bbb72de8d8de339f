package transport

import (
	"context"
	"errors"
)

// ErrMessageGone reports that a message to edit or delete no longer exists
// on the platform.
var ErrMessageGone = errors.New("message no longer exists")

// MaxMessageLen is the longest text, markup included, that goes out as a
// single platform message.
const MaxMessageLen = 4000

type UpdateKind string

const (
	UpdateMessage UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID       int
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)

	FromID          int64
	FromUsername    string
	FromDisplayName string

	Text      string
	IsPrivate bool
	IsGroup   bool
}

type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

func (r MessageRef) Target() ChatTarget {
	return ChatTarget{ChatID: r.ChatID, ThreadID: r.ThreadID}
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	// ReplyTo threads the message under an earlier one (0 for none).
	ReplyTo int
}

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *SendOptions) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is implemented by adapters that can publish a
// platform command menu (Telegram setMyCommands).
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}

// StatusUpdater is implemented by adapters that can show a short bot
// status line (Telegram setMyShortDescription).
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, status string) error
}
