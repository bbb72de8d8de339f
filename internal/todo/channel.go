package todo

import (
	"context"
	"time"

	kit "todobot/internal/transport"
	"todobot/pkg/tgui"
)

// Message is a message as seen through a Channel.
type Message struct {
	Ref     kit.MessageRef
	FromBot bool
	Card    *Card
	Text    string
	SentAt  time.Time
}

// Outgoing is a message to send or an edit to apply. Text is rendered
// above the card when both are set.
type Outgoing struct {
	Text tgui.H
	Card *Card
	// DeleteAfter schedules removal of a sent message (0 keeps it).
	DeleteAfter time.Duration
	// UserID is the list owner, recorded alongside the message.
	UserID int64
}

// Channel is the port to the chat platform. It is the only place the todo
// record is read from or written to.
type Channel interface {
	// DirectChat returns the private chat with user, opening it if needed.
	DirectChat(ctx context.Context, userID int64) (kit.ChatTarget, error)
	// History returns the bot's view of a chat, newest first.
	History(ctx context.Context, chat kit.ChatTarget) ([]Message, error)
	Send(ctx context.Context, to kit.ChatTarget, out Outgoing) (Message, error)
	Edit(ctx context.Context, ref kit.MessageRef, out Outgoing) error
	// Delete removes a message. A message that is already gone is not an error.
	Delete(ctx context.Context, ref kit.MessageRef) error
}
