package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "todobot/pkg/logx"
)

// Store is the persistence API used by the chat log, the janitor and
// the operator CLI.
type Store interface {
	// PutMessage inserts or replaces the record keyed by (ChatID, MessageID).
	PutMessage(ctx context.Context, rec MessageRecord) error
	// ListMessages returns the chat's records, newest first.
	ListMessages(ctx context.Context, chatID int64) ([]MessageRecord, error)
	// DeleteMessage forgets a record. Unknown records are not an error.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// ExpiredMessages returns up to limit records whose ExpireAt is at or
	// before now, oldest expiry first.
	ExpiredMessages(ctx context.Context, now time.Time, limit int) ([]MessageRecord, error)

	AppendAudit(ctx context.Context, e AuditEntry) error
	// RecentAudit returns up to limit entries, newest first.
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "memory", "":
		return NewMemory(), nil
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
