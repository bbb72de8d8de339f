package storage

import (
	"errors"
	"time"
)

var (
	ErrClosed   = errors.New("storage closed")
	ErrNotFound = errors.New("record not found")
)

// Config configures storage.
//
// Driver values: "memory", "file", "sqlite" (alias "sqlite3").
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// CardRecord is the structured part of a todo message.
type CardRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Footer      string `json:"footer"`
}

// MessageRecord is one bot-sent message as the ledger knows it.
type MessageRecord struct {
	ChatID    int64       `json:"chat_id"`
	ThreadID  int         `json:"thread_id,omitempty"`
	MessageID int         `json:"message_id"`
	UserID    int64       `json:"user_id,omitempty"`
	Card      *CardRecord `json:"card,omitempty"`
	Text      string      `json:"text,omitempty"`
	SentAt    time.Time   `json:"sent_at"`
	// ExpireAt schedules deletion by the janitor; zero keeps the message.
	ExpireAt time.Time `json:"expire_at,omitempty"`
}

func (r MessageRecord) Expired(now time.Time) bool {
	return !r.ExpireAt.IsZero() && !r.ExpireAt.After(now)
}

// AuditEntry records one state-changing todo operation.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At            time.Time `json:"at"`
	ActorID       int64     `json:"actor_id"`
	ActorUsername string    `json:"actor_username,omitempty"`
	ChatID        int64     `json:"chat_id"`
	ThreadID      int       `json:"thread_id,omitempty"`
	Action        string    `json:"action"`
	Target        string    `json:"target,omitempty"`
	MessageID     int       `json:"message_id,omitempty"`
	Error         string    `json:"error,omitempty"`
	TookMS        int64     `json:"took_ms,omitempty"`
}
