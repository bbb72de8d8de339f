package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

const memoryAuditCap = 1000

// ledger is the in-memory message index shared by the memory and file
// backends. It is not safe for concurrent use; callers hold a lock.
type ledger map[int64]map[int]MessageRecord

func (l ledger) put(rec MessageRecord) {
	chat := l[rec.ChatID]
	if chat == nil {
		chat = map[int]MessageRecord{}
		l[rec.ChatID] = chat
	}
	chat[rec.MessageID] = cloneRecord(rec)
}

func (l ledger) del(chatID int64, messageID int) {
	chat := l[chatID]
	if chat == nil {
		return
	}
	delete(chat, messageID)
	if len(chat) == 0 {
		delete(l, chatID)
	}
}

// list returns the chat's records, highest message id first. Telegram ids
// grow monotonically within a chat, so this is newest first.
func (l ledger) list(chatID int64) []MessageRecord {
	chat := l[chatID]
	out := make([]MessageRecord, 0, len(chat))
	for _, r := range chat {
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID > out[j].MessageID })
	return out
}

func (l ledger) expired(now time.Time, limit int) []MessageRecord {
	var out []MessageRecord
	for _, chat := range l {
		for _, r := range chat {
			if r.Expired(now) {
				out = append(out, cloneRecord(r))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpireAt.Equal(out[j].ExpireAt) {
			return out[i].ExpireAt.Before(out[j].ExpireAt)
		}
		return out[i].MessageID < out[j].MessageID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (l ledger) all() []MessageRecord {
	var out []MessageRecord
	for _, chat := range l {
		for _, r := range chat {
			out = append(out, r)
		}
	}
	return out
}

func cloneRecord(r MessageRecord) MessageRecord {
	if r.Card != nil {
		c := *r.Card
		r.Card = &c
	}
	return r
}

// memoryStore keeps everything in process memory.
type memoryStore struct {
	mu     sync.Mutex
	closed bool
	ledger ledger
	audit  []AuditEntry
}

// NewMemory returns an empty process-local store.
func NewMemory() Store {
	return &memoryStore{ledger: ledger{}}
}

func (s *memoryStore) PutMessage(ctx context.Context, rec MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.ledger.put(rec)
	return nil
}

func (s *memoryStore) ListMessages(ctx context.Context, chatID int64) ([]MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.ledger.list(chatID), nil
}

func (s *memoryStore) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.ledger.del(chatID, messageID)
	return nil
}

func (s *memoryStore) ExpiredMessages(ctx context.Context, now time.Time, limit int) ([]MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.ledger.expired(now, limit), nil
}

func (s *memoryStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.audit = append(s.audit, e)
	if len(s.audit) > memoryAuditCap {
		s.audit = append([]AuditEntry(nil), s.audit[len(s.audit)-memoryAuditCap:]...)
	}
	return nil
}

func (s *memoryStore) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return newestFirst(s.audit, limit), nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// newestFirst returns the last limit entries of an append-ordered slice,
// reversed. limit <= 0 means all.
func newestFirst(entries []AuditEntry, limit int) []AuditEntry {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]AuditEntry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}
