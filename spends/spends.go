/*
Package spends maintains the spending history log.

PURPOSE:
  Keeps a write-mostly journal of money the ledger moved into goals,
  so the family can review "where did the allowance go" by month. The
  log is strictly downstream of the ledger: entries are appended on
  successful deposits and auto top-up cycles, and the ledger never
  reads them back. Losing the log loses history, never balances.

STORAGE:
  The whole journal is persisted under one key ("piggy.spends.v1") as a
  JSON array, newest first. The same KV abstraction used for snapshots
  backs it, so memory and SQLite deployments behave identically.

CATEGORIES:
  Entries carry one of a fixed category set (food, fun, learning,
  transport, gifts, other). Unknown categories collapse to "other"
  rather than failing the write.

SEE ALSO:
  - ledger/types.go: SpendEntry and SpendRecorder
  - store/store.go: KV interface
*/
package spends

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/piggy-engine/ledger"
	"github.com/warp/piggy-engine/store"
)

const (
	// StorageKey is the KV key holding the serialized journal.
	StorageKey = "piggy.spends.v1"

	// DefaultCategory absorbs unknown or empty categories.
	DefaultCategory = "other"

	// MaxNoteLen bounds free-text notes, in runes.
	MaxNoteLen = 120
)

// Categories is the closed set of spend categories.
var Categories = []string{"food", "fun", "learning", "transport", "gifts", "other"}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Record is one journal entry.
type Record struct {
	ID       string       `json:"id"`
	Amount   ledger.Money `json:"amount"`
	Category string       `json:"category"`
	Note     string       `json:"note"`
	Date     time.Time    `json:"date"`
	MonthKey string       `json:"monthKey"`
}

// Log is the persistent spending journal. Safe for concurrent use.
type Log struct {
	kv  store.KV
	log zerolog.Logger

	mu      sync.Mutex
	entries []Record
	loaded  bool
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Log) { l.log = log }
}

// NewLog creates a journal backed by the given KV.
func NewLog(kv store.KV, opts ...Option) *Log {
	l := &Log{
		kv:  kv,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// loadLocked reads the journal from the KV once. Corrupt or absent data
// starts an empty journal; history is advisory, not load-bearing.
func (l *Log) loadLocked() {
	if l.loaded {
		return
	}
	l.loaded = true

	data, ok, err := l.kv.Get(StorageKey)
	if err != nil {
		l.log.Warn().Err(err).Str("key", StorageKey).Msg("spend journal read failed, starting empty")
		return
	}
	if !ok {
		return
	}

	var entries []Record
	if err := json.Unmarshal(data, &entries); err != nil {
		l.log.Warn().Err(err).Str("key", StorageKey).Msg("spend journal corrupt, starting empty")
		return
	}
	l.entries = entries
}

// saveLocked persists the journal. Failures are logged and swallowed.
func (l *Log) saveLocked() {
	data, err := json.Marshal(l.entries)
	if err != nil {
		l.log.Error().Err(err).Msg("spend journal marshal failed")
		return
	}
	if err := l.kv.Set(StorageKey, data); err != nil {
		l.log.Warn().Err(err).Str("key", StorageKey).Msg("spend journal write failed")
	}
}

// Append normalizes and prepends an entry, newest first.
func (l *Log) Append(r Record) Record {
	r = normalize(r)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()

	l.entries = append([]Record{r}, l.entries...)
	l.saveLocked()
	return r
}

// List returns the journal, newest first.
func (l *Log) List() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()

	out := make([]Record, len(l.entries))
	copy(out, l.entries)
	return out
}

// ListMonth returns entries whose month key matches, newest first.
func (l *Log) ListMonth(monthKey string) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()

	var out []Record
	for _, r := range l.entries {
		if r.MonthKey == monthKey {
			out = append(out, r)
		}
	}
	return out
}

// Record implements ledger.SpendRecorder.
func (l *Log) Record(entry ledger.SpendEntry) {
	l.Append(Record{
		Amount:   entry.Amount,
		Category: entry.Category,
		Note:     entry.Note,
		Date:     entry.Date,
	})
}

func normalize(r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	if !validCategory(r.Category) {
		r.Category = DefaultCategory
	}
	r.Note = truncateNote(strings.TrimSpace(r.Note))
	if r.Date.IsZero() {
		r.Date = time.Now().UTC()
	}
	r.MonthKey = MonthKeyOf(r.Date)
	return r
}

func truncateNote(note string) string {
	if utf8.RuneCountInString(note) <= MaxNoteLen {
		return note
	}
	runes := []rune(note)
	return string(runes[:MaxNoteLen])
}

// MonthKeyOf formats a time as its UTC "YYYY-MM" month bucket.
func MonthKeyOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}
