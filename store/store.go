/*
store.go - Durable snapshot persistence

PURPOSE:
  Reads and writes the single ledger snapshot to a key-value store, handles
  legacy-format migration and corruption recovery, and broadcasts every
  durable write to all subscribed observers.

KEYS:
  The snapshot lives under a versioned key (piggy.ledger.v4). Loads fall
  back through the legacy keys in descending version order and migrate the
  first hit to the current key in place. Corrupt payloads at any key are
  treated as absent, never as a fatal error.

WRITE PATH:
  Save normalizes the snapshot, serializes it, and writes through a bounded
  exponential backoff. If every attempt fails, the whole namespace is
  cleared and the write retried once more; the final result is a boolean,
  never a panic. SaveDebounced coalesces bursts (rapid name edits) into one
  durable write after a quiet period, always keeping only the most recent
  snapshot. Callers choose durability explicitly: immediate saves for money
  movement and deletions, debounced saves for cosmetic edits.

FAILURE SEMANTICS:
  An unavailable backing store is non-fatal: loads return the seed defaults
  and saves report false, so the in-memory state stays correct for the
  session even when nothing is durable.

CONCURRENCY:
  A single mutex serializes every read-modify-write cycle; mutations always
  replace the entire snapshot (no field-level writes). Concurrent stores on
  the same backing KV are last-writer-wins at snapshot granularity - an
  accepted gap for a single-device demo.

IMPLEMENTATIONS OF KV:
  - store/memory: in-memory, for tests and ephemeral runs
  - store/sqlite: durable single-file storage

SEE ALSO:
  - notify.go: change broadcast
  - ledger/normalize.go: the normalization applied on every load and save
*/
package store

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/warp/piggy-engine/ledger"
)

// CurrentKey is where the live snapshot is stored.
const CurrentKey = "piggy.ledger.v4"

// LegacyKeys are scanned in descending version order when the current key
// is absent or corrupt.
var LegacyKeys = []string{"piggy.ledger.v3", "piggy.ledger.v2", "piggy.ledger.v1"}

// Defaults for the write path.
const (
	DefaultQuietPeriod   = 300 * time.Millisecond
	DefaultRetryInterval = 50 * time.Millisecond
	DefaultMaxRetries    = 2 // 3 attempts total before the clear-and-rewrite fallback
)

// KV is the minimal key-value contract the snapshot store needs. All
// methods are expected to be safe for concurrent use.
type KV interface {
	// Get returns the value at key; ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Clear wipes the entire namespace. Last-resort recovery only.
	Clear() error
}

// SnapshotStore is the durable home of the ledger snapshot.
type SnapshotStore struct {
	kv      KV
	log     zerolog.Logger
	bus     *Broadcaster
	seed    ledger.Snapshot
	quiet   time.Duration
	retryIv time.Duration
	retries uint64
	metrics *Metrics

	mu sync.Mutex // serializes load/save/update cycles

	dmu     sync.Mutex // guards the debounce state below
	timer   *time.Timer
	pending *ledger.Snapshot
}

type Option func(*SnapshotStore)

func WithLogger(log zerolog.Logger) Option {
	return func(st *SnapshotStore) { st.log = log }
}

func WithQuietPeriod(d time.Duration) Option {
	return func(st *SnapshotStore) { st.quiet = d }
}

func WithRetries(interval time.Duration, max uint64) Option {
	return func(st *SnapshotStore) { st.retryIv = interval; st.retries = max }
}

// WithSeed overrides the snapshot returned when no stored state exists.
func WithSeed(seed ledger.Snapshot) Option {
	return func(st *SnapshotStore) { st.seed = seed }
}

func WithMetrics(m *Metrics) Option {
	return func(st *SnapshotStore) { st.metrics = m }
}

func New(kv KV, opts ...Option) *SnapshotStore {
	st := &SnapshotStore{
		kv:      kv,
		log:     zerolog.Nop(),
		bus:     NewBroadcaster(),
		seed:    ledger.DefaultSnapshot(),
		quiet:   DefaultQuietPeriod,
		retryIv: DefaultRetryInterval,
		retries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Subscribe registers an observer of durable writes. The returned cancel
// function must be called to release the subscription.
func (st *SnapshotStore) Subscribe() (<-chan ledger.Snapshot, func()) {
	return st.bus.Subscribe()
}

// =============================================================================
// LOAD / RECOVER / VALIDATE
// =============================================================================

// Load reads the snapshot from the current key, falling back through legacy
// keys (migrating the first hit), and finally to the seed defaults.
func (st *SnapshotStore) Load() ledger.Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.loadLocked()
}

func (st *SnapshotStore) loadLocked() ledger.Snapshot {
	for _, key := range append([]string{CurrentKey}, LegacyKeys...) {
		raw, ok, err := st.kv.Get(key)
		if err != nil {
			st.log.Warn().Err(err).Str("key", key).Msg("snapshot read failed")
			continue
		}
		if !ok {
			continue
		}
		snap, ok := ledger.DecodeSnapshot(raw)
		if !ok {
			// Corrupt payloads are absent, not fatal.
			st.log.Warn().Str("key", key).Msg("ignoring corrupt snapshot payload")
			continue
		}
		normalized := ledger.Normalize(snap)
		if key != CurrentKey {
			// One-time lazy migration onto the current key.
			st.log.Info().Str("from", key).Str("to", CurrentKey).Msg("migrating legacy snapshot")
			st.saveLocked(normalized)
		}
		return normalized
	}
	return st.seed.Clone()
}

// Recover scans every known key for the first parseable snapshot. Used when
// in-memory state fails validation; read-only, performs no migration.
func (st *SnapshotStore) Recover() ledger.Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.recoverLocked()
}

func (st *SnapshotStore) recoverLocked() ledger.Snapshot {
	if st.metrics != nil {
		st.metrics.Recoveries.Inc()
	}
	for _, key := range append([]string{CurrentKey}, LegacyKeys...) {
		raw, ok, err := st.kv.Get(key)
		if err != nil || !ok {
			continue
		}
		if snap, ok := ledger.DecodeSnapshot(raw); ok {
			st.log.Info().Str("key", key).Msg("recovered snapshot")
			return ledger.Normalize(snap)
		}
	}
	st.log.Warn().Msg("no recoverable snapshot, using defaults")
	return st.seed.Clone()
}

// Validate is the cheap structural check applied before trusting a loaded
// or externally delivered snapshot. Numeric non-negativity is guaranteed by
// the Money type itself; what can still go wrong structurally is the goal
// list and identifier uniqueness.
func Validate(s ledger.Snapshot) bool {
	if s.Goals == nil {
		return false
	}
	seen := make(map[string]struct{}, len(s.Goals))
	for _, g := range s.Goals {
		if g.ID == "" {
			return false
		}
		if _, dup := seen[g.ID]; dup {
			return false
		}
		seen[g.ID] = struct{}{}
	}
	return true
}

// =============================================================================
// SAVE
// =============================================================================

// Save normalizes and durably persists the snapshot, broadcasting it to
// subscribers on success. Returns whether the write ultimately succeeded.
func (st *SnapshotStore) Save(s ledger.Snapshot) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.saveLocked(s)
}

func (st *SnapshotStore) saveLocked(s ledger.Snapshot) bool {
	normalized := ledger.Normalize(s)

	payload, err := json.Marshal(normalized)
	if err != nil {
		st.log.Error().Err(err).Msg("snapshot encode failed")
		return false
	}

	if st.metrics != nil {
		st.metrics.SaveAttempts.Inc()
	}

	write := func() error { return st.kv.Set(CurrentKey, payload) }
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(st.retryIv),
	), st.retries)

	if err := backoff.Retry(write, bo); err != nil {
		// Last resort: wipe the namespace and try once more. Quota-style
		// failures are often cured by freeing the rest of the namespace.
		st.log.Warn().Err(err).Msg("snapshot write failed, clearing namespace")
		if cerr := st.kv.Clear(); cerr != nil {
			st.failSave(cerr)
			return false
		}
		if werr := st.kv.Set(CurrentKey, payload); werr != nil {
			st.failSave(werr)
			return false
		}
	}

	st.bus.Publish(normalized)
	return true
}

func (st *SnapshotStore) failSave(err error) {
	if st.metrics != nil {
		st.metrics.SaveFailures.Inc()
	}
	st.log.Error().Err(err).Msg("snapshot write failed permanently; state is in-memory only")
}

// SaveDebounced schedules a durable write after a quiet period, coalescing
// rapid successive calls into one write of the most recent snapshot.
func (st *SnapshotStore) SaveDebounced(s ledger.Snapshot) {
	st.dmu.Lock()
	defer st.dmu.Unlock()

	snap := s.Clone()
	st.pending = &snap
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(st.quiet, st.flushPending)
}

func (st *SnapshotStore) flushPending() {
	st.dmu.Lock()
	pending := st.pending
	st.pending = nil
	st.dmu.Unlock()

	if pending != nil {
		st.Save(*pending)
	}
}

// Flush forces any debounced write out immediately.
func (st *SnapshotStore) Flush() {
	st.dmu.Lock()
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.dmu.Unlock()
	st.flushPending()
}

// Close flushes pending writes and drops all subscriptions.
func (st *SnapshotStore) Close() {
	st.Flush()
	st.bus.Close()
}

// =============================================================================
// ATOMIC READ-MODIFY-WRITE
// =============================================================================

// Update runs fn against a freshly loaded snapshot while holding the store
// lock, then durably saves the result when fn reports a change. Every
// mutation goes through here so the whole snapshot is replaced in one step.
// The returned flag is false only when a changed snapshot could not be made
// durable (the returned state is still the correct in-memory state).
func (st *SnapshotStore) Update(fn func(ledger.Snapshot) (ledger.Snapshot, bool)) (ledger.Snapshot, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	current := st.loadLocked()
	if !Validate(current) {
		// Inconsistent state on disk: fall back to the recovery scan
		// rather than proceeding from garbage.
		current = st.recoverLocked()
	}

	next, changed := fn(current)
	if !changed {
		return current, true
	}
	return ledger.Normalize(next), st.saveLocked(next)
}
