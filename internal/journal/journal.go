// Package journal keeps a durable record of finished chat turns in a bbolt
// database.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/ksfoundation/oneshot/internal/agent"
	"github.com/ksfoundation/oneshot/internal/schema"
)

var turnsBucket = []byte("turns")

var ErrStoreClosed = errors.New("journal is closed")

// ToolCall is the journaled summary of one invocation.
type ToolCall struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Outcome schema.Outcome `json:"outcome"`
	Error   string         `json:"error,omitempty"`
}

// Entry is one journaled turn.
type Entry struct {
	ID         string     `json:"id"`
	Time       time.Time  `json:"time"`
	Source     string     `json:"source,omitempty"`
	Model      string     `json:"model"`
	Provider   string     `json:"provider"`
	Backend    string     `json:"backend"`
	Message    string     `json:"message"`
	Response   string     `json:"response,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	Error      string     `json:"error,omitempty"`
	DurationMS int64      `json:"durationMs"`
}

type sourceKey struct{}

// WithSource tags turns started under ctx with the caller's name, e.g.
// "cli", "gateway" or "cron:nightly".
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source set by WithSource, or "".
func SourceFrom(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey{}).(string)
	return s
}

// Store is a bbolt-backed journal. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(turnsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal: %w", err)
	}
	return &Store{db: db, path: trimmed}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Record appends e, filling in ID and Time when unset.
func (s *Store) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encode entry: %w", err)
	}
	err = s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(turnsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), raw)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("write entry: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	var out []Entry
	err := s.view(func(tx *bolt.Tx) error {
		c := tx.Bucket(turnsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode entry %x: %w", k, err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Count returns the number of journaled turns.
func (s *Store) Count() (int, error) {
	var n int
	err := s.view(func(tx *bolt.Tx) error {
		n = tx.Bucket(turnsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// ObserveTurn journals a finished turn. Write failures are logged only.
func (s *Store) ObserveTurn(ctx context.Context, t agent.Turn) {
	if _, err := s.Record(EntryFromTurn(SourceFrom(ctx), t)); err != nil {
		slog.Warn("journal: record failed", "err", err)
	}
}

// EntryFromTurn converts a finished turn into an Entry.
func EntryFromTurn(source string, t agent.Turn) Entry {
	e := Entry{
		Time:       t.Started,
		Source:     source,
		Model:      t.Model,
		Provider:   t.Provider,
		Backend:    t.Kind.String(),
		Message:    t.Message,
		Response:   t.Response.Content,
		DurationMS: t.Elapsed.Milliseconds(),
	}
	if t.Err != nil {
		e.Error = t.Err.Error()
	}
	for _, c := range t.Response.ToolCalls {
		e.ToolCalls = append(e.ToolCalls, ToolCall{ID: c.RequestID, Name: c.ToolName, Outcome: c.Outcome, Error: c.Error})
	}
	return e
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}
