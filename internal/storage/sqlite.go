package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "todobot/pkg/logx"
)

//go:embed migrations.sql
var migrationsSQL string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			log.Debug("sqlite pragma failed", logx.String("pragma", p), logx.Err(err))
		}
	}

	if _, err := db.ExecContext(context.Background(), migrationsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) PutMessage(ctx context.Context, rec MessageRecord) error {
	var card CardRecord
	hasCard := 0
	if rec.Card != nil {
		card, hasCard = *rec.Card, 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages(chat_id, message_id, thread_id, user_id, has_card, title, description, footer, text, sent_at, expire_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(chat_id, message_id) DO UPDATE SET
		   thread_id=excluded.thread_id, user_id=excluded.user_id, has_card=excluded.has_card,
		   title=excluded.title, description=excluded.description, footer=excluded.footer,
		   text=excluded.text, sent_at=excluded.sent_at, expire_at=excluded.expire_at`,
		rec.ChatID, rec.MessageID, rec.ThreadID, rec.UserID, hasCard,
		card.Title, card.Description, card.Footer, rec.Text,
		rec.SentAt.UnixMilli(), unixMilliOrZero(rec.ExpireAt),
	)
	return err
}

const messageColumns = `chat_id, message_id, thread_id, user_id, has_card, title, description, footer, text, sent_at, expire_at`

func (s *sqliteStore) ListMessages(ctx context.Context, chatID int64) ([]MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY message_id DESC`, chatID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (s *sqliteStore) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ? AND message_id = ?`, chatID, messageID)
	return err
}

func (s *sqliteStore) ExpiredMessages(ctx context.Context, now time.Time, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE expire_at > 0 AND expire_at <= ?
		 ORDER BY expire_at ASC, message_id ASC LIMIT ?`, now.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]MessageRecord, error) {
	defer rows.Close()
	var out []MessageRecord
	for rows.Next() {
		var (
			r        MessageRecord
			c        CardRecord
			hasCard  int
			sent, ex int64
		)
		if err := rows.Scan(&r.ChatID, &r.MessageID, &r.ThreadID, &r.UserID, &hasCard,
			&c.Title, &c.Description, &c.Footer, &r.Text, &sent, &ex); err != nil {
			return nil, err
		}
		if hasCard == 1 {
			r.Card = &c
		}
		r.SentAt = time.UnixMilli(sent)
		if ex > 0 {
			r.ExpireAt = time.UnixMilli(ex)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(at, actor_id, actor_username, chat_id, thread_id, action, target, message_id, err, took_ms)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		e.At.UTC().Format(time.RFC3339Nano), e.ActorID, nullStr(e.ActorUsername), e.ChatID, e.ThreadID,
		e.Action, nullStr(e.Target), e.MessageID, nullStr(e.Error), e.TookMS,
	)
	return err
}

func (s *sqliteStore) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, actor_id, actor_username, chat_id, thread_id, action, target, message_id, err, took_ms
		 FROM audit ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e                    AuditEntry
			at                   string
			user, target, errStr sql.NullString
		)
		if err := rows.Scan(&at, &e.ActorID, &user, &e.ChatID, &e.ThreadID, &e.Action, &target,
			&e.MessageID, &errStr, &e.TookMS); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.ActorUsername, e.Target, e.Error = user.String, target.String, errStr.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
