package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "todobot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.audit.jsonl           (append-only JSON Lines)
//   - <prefix>.ledger.snapshot.json  (full ledger, rewritten on compaction)
//   - <prefix>.ledger.journal.jsonl  (put/del operations since the snapshot)
//
// The journal is folded into the snapshot on open and every compactEvery writes.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	auditPath string
	auditFile *os.File

	snapshotPath string
	journal      *os.File
	ledger       ledger
	writes       int
}

const compactEvery = 500

type journalOp struct {
	Op  string        `json:"op"` // "put" | "del"
	Rec MessageRecord `json:"rec"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{
		log:          log,
		auditPath:    prefix + ".audit.jsonl",
		snapshotPath: prefix + ".ledger.snapshot.json",
		ledger:       ledger{},
	}
	journalPath := prefix + ".ledger.journal.jsonl"

	if err := loadSnapshot(s.snapshotPath, s.ledger); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("ledger snapshot unreadable; starting from journal", logx.Err(err))
	}
	if err := replayJournal(journalPath, s.ledger); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	af, err := os.OpenFile(s.auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		_ = af.Close()
		return nil, err
	}
	s.auditFile = af
	s.journal = jf

	if err := s.compactLocked(); err != nil {
		log.Warn("ledger compaction failed", logx.Err(err))
	}
	return s, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	errCompact := s.compactLocked()
	err1 := s.auditFile.Close()
	err2 := s.journal.Close()
	s.auditFile, s.journal = nil, nil
	return errors.Join(errCompact, err1, err2)
}

func (s *fileStore) PutMessage(ctx context.Context, rec MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendLocked(journalOp{Op: "put", Rec: rec}); err != nil {
		return err
	}
	s.ledger.put(rec)
	return nil
}

func (s *fileStore) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger[chatID][messageID]; !ok {
		return nil
	}
	if err := s.appendLocked(journalOp{Op: "del", Rec: MessageRecord{ChatID: chatID, MessageID: messageID}}); err != nil {
		return err
	}
	s.ledger.del(chatID, messageID)
	return nil
}

func (s *fileStore) ListMessages(ctx context.Context, chatID int64) ([]MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil, ErrClosed
	}
	return s.ledger.list(chatID), nil
}

func (s *fileStore) ExpiredMessages(ctx context.Context, now time.Time, limit int) ([]MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil, ErrClosed
	}
	return s.ledger.expired(now, limit), nil
}

func (s *fileStore) AppendAudit(ctx context.Context, e AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return ErrClosed
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

// RecentAudit scans the audit file. It is an operator tool, not a hot path.
func (s *fileStore) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return nil, ErrClosed
	}
	f, err := os.Open(s.auditPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			all = append(all, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return newestFirst(all, limit), nil
}

func (s *fileStore) appendLocked(op journalOp) error {
	if s.journal == nil {
		return ErrClosed
	}
	if err := json.NewEncoder(s.journal).Encode(op); err != nil {
		return err
	}
	s.writes++
	if s.writes%compactEvery == 0 {
		if err := s.compactLocked(); err != nil {
			s.log.Debug("ledger compaction failed", logx.Err(err))
		}
	}
	return nil
}

// compactLocked writes the ledger to a fresh snapshot and truncates the journal.
func (s *fileStore) compactLocked() error {
	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.ledger.all()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	if err := s.journal.Truncate(0); err != nil {
		return err
	}
	_, err = s.journal.Seek(0, io.SeekEnd)
	return err
}

func loadSnapshot(path string, into ledger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var recs []MessageRecord
	if err := json.NewDecoder(f).Decode(&recs); err != nil {
		return err
	}
	for _, r := range recs {
		into.put(r)
	}
	return nil
}

// replayJournal applies journal operations in order. A torn final line
// (crash mid-write) is skipped.
func replayJournal(path string, into ledger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var op journalOp
		if err := json.Unmarshal(sc.Bytes(), &op); err != nil {
			continue
		}
		switch op.Op {
		case "put":
			into.put(op.Rec)
		case "del":
			into.del(op.Rec.ChatID, op.Rec.MessageID)
		}
	}
	return sc.Err()
}
