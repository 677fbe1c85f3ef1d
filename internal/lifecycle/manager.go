package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/model"
)

// SessionFactory constructs a *Session[T] for a model id — the "loader
// function (closure producing a Session[T])" the spec describes. It closes
// over whatever artifact lookup and executor.Load call are needed; the
// manager never inspects artifacts itself.
type SessionFactory[T any] func(ctx context.Context, id model.ID) (*executor.Session[T], error)

// entry is a ModelEntry: a loaded-or-not session plus its refcount, pending
// unload timer, and TTL, each guarded by its own mutex so one slow load
// never blocks leases of unrelated models.
type entry[T any] struct {
	mu          sync.Mutex
	session     *executor.Session[T]
	refCount    int
	timer       *time.Timer
	ttl         time.Duration
	lastRelease time.Time
	loadedAt    time.Time
}

// Manager is one instance per executor family: a ModelId -> entry mapping
// behind a coarse mutex, plus a per-entry mutex for the load/lease path.
type Manager[T any] struct {
	factory    SessionFactory[T]
	defaultTTL time.Duration
	maxModels  int
	log        zerolog.Logger
	family     string

	mu      sync.Mutex
	entries map[model.ID]*entry[T]
}

// NewManager builds a Manager. family is a short label (e.g. "asr",
// "tts-voicepack") used only for log fields. maxModels <= 0 disables the
// advisory eviction cap.
func NewManager[T any](family string, factory SessionFactory[T], defaultTTL time.Duration, maxModels int, log zerolog.Logger) *Manager[T] {
	return &Manager[T]{
		factory:    factory,
		defaultTTL: defaultTTL,
		maxModels:  maxModels,
		log:        log,
		family:     family,
		entries:    map[model.ID]*entry[T]{},
	}
}

// getOrCreate finds or creates an entry for id under the coarse mutex only
// long enough to do so, then returns it with the outer lock already dropped.
func (m *Manager[T]) getOrCreate(id model.ID) *entry[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		e = &entry[T]{ttl: m.defaultTTL}
		m.entries[id] = e
	}
	return e
}

func (m *Manager[T]) get(id model.ID) (*entry[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

func (m *Manager[T]) drop(id model.ID, e *entry[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[id]; ok && cur == e {
		delete(m.entries, id)
	}
}

// ensureRegistered re-installs e under id if it was concurrently evicted
// between getOrCreate and a successful load — closes the narrow race where
// an unload-by-timer drops the map entry while a fresh lease is mid-load.
func (m *Manager[T]) ensureRegistered(id model.ID, e *entry[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		m.entries[id] = e
	}
}

// Lease acquires a leased session for id, loading it if absent. Concurrent
// leases for the same id coalesce on the entry mutex: only the first caller
// through runs the loader.
func (m *Manager[T]) Lease(ctx context.Context, id model.ID) (*Lease[T], error) {
	e := m.getOrCreate(id)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		m.evictForSpace(id)

		start := time.Now()
		sess, err := m.factory(ctx, id)
		if err != nil {
			var unknown *model.ErrUnknownModel
			if errors.As(err, &unknown) {
				return nil, &ErrNotFound{ID: id}
			}
			return nil, &ErrLoadFailed{ID: id, Cause: err}
		}
		e.session = sess
		e.loadedAt = time.Now()
		m.log.Info().
			Str("model_id", string(id)).
			Str("family", m.family).
			Dur("load_duration", time.Since(start)).
			Msg("model loaded")
		m.ensureRegistered(id, e)
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.refCount++

	return &Lease[T]{
		id:      id,
		mgr:     m,
		entry:   e,
		session: e.session,
	}, nil
}

// release is invoked by Lease.Release: decrement refcount
// and, if it reaches zero, apply the TTL policy.
func (m *Manager[T]) release(id model.ID, e *entry[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refCount > 0 {
		e.refCount--
	}
	if e.refCount > 0 {
		return
	}

	e.lastRelease = time.Now()
	switch {
	case e.ttl > 0:
		m.log.Debug().Str("model_id", string(id)).Dur("ttl", e.ttl).Msg("model idle, scheduling unload")
		e.timer = time.AfterFunc(e.ttl, func() { m.timerFired(id) })
	case e.ttl == 0:
		m.log.Debug().Str("model_id", string(id)).Msg("model idle, unloading immediately")
		m.unloadLocked(id, e)
	default:
		m.log.Debug().Str("model_id", string(id)).Msg("model idle, ttl negative, not unloading")
	}
}

// timerFired is the unload timer's callback. It re-acquires the entry
// mutex and re-validates refcount before unloading, per the spec's
// "re-check under the lock" rule — a lease taken between timer-arm and
// timer-fire must win.
func (m *Manager[T]) timerFired(id model.ID) {
	e, ok := m.get(id)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refCount == 0 && e.session != nil {
		m.unloadLocked(id, e)
	}
}

// unloadLocked requires e.mu already held. It drops the session, stops any
// timer, and removes the entry from the manager's map.
func (m *Manager[T]) unloadLocked(id model.ID, e *entry[T]) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	sess := e.session
	e.session = nil
	if sess != nil {
		_ = sess.Close()
	}
	m.drop(id, e)
	m.log.Info().Str("model_id", string(id)).Str("family", m.family).Msg("model unloaded")
}

// ForceUnload implements the operational DELETE /api/ps/{model_id} path:
// fails with ErrNotLoaded if no session is resident, ErrBusy if refcount > 0.
func (m *Manager[T]) ForceUnload(id model.ID) error {
	e, ok := m.get(id)
	if !ok {
		return &ErrNotLoaded{ID: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return &ErrNotLoaded{ID: id}
	}
	if e.refCount > 0 {
		return &ErrBusy{ID: id}
	}
	m.unloadLocked(id, e)
	return nil
}

// ListLoaded returns the ids of every entry currently holding a session.
func (m *Manager[T]) ListLoaded() []model.ID {
	m.mu.Lock()
	ids := make([]model.ID, 0, len(m.entries))
	entries := make([]*entry[T], 0, len(m.entries))
	for id, e := range m.entries {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	m.mu.Unlock()

	loaded := make([]model.ID, 0, len(ids))
	for i, id := range ids {
		e := entries[i]
		e.mu.Lock()
		if e.session != nil {
			loaded = append(loaded, id)
		}
		e.mu.Unlock()
	}
	return loaded
}

// IsLoaded reports whether id currently has a resident session.
func (m *Manager[T]) IsLoaded(id model.ID) bool {
	e, ok := m.get(id)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// SetTTL overrides the TTL for one already-created entry (used for
// per-family/per-model TTL overrides read from config).
func (m *Manager[T]) SetTTL(id model.ID, ttl time.Duration) {
	e := m.getOrCreate(id)
	e.mu.Lock()
	e.ttl = ttl
	e.mu.Unlock()
}

// evictForSpace implements the advisory SPEACHES_MAX_MODELS cap: when the
// number of loaded entries is at or above the cap, the single idlest
// (oldest last-release) unleased entry is unloaded to make room. Called
// with the about-to-load entry's mutex already held by the caller, so the
// victim is never the entry being loaded (it isn't loaded yet). Other
// entries are only try-locked: one whose mutex is held at that moment (for
// example, mid-load) is skipped rather than waited on. If no entry can be
// unloaded, the load goes ahead above the cap.
func (m *Manager[T]) evictForSpace(loading model.ID) {
	if m.maxModels <= 0 {
		return
	}

	m.mu.Lock()
	type candidate struct {
		id  model.ID
		e   *entry[T]
	}
	var candidates []candidate
	loadedCount := 0
	for id, e := range m.entries {
		if id == loading {
			continue
		}
		candidates = append(candidates, candidate{id: id, e: e})
	}
	m.mu.Unlock()

	for _, c := range candidates {
		if !c.e.mu.TryLock() {
			continue
		}
		if c.e.session != nil {
			loadedCount++
		}
		c.e.mu.Unlock()
	}
	if loadedCount < m.maxModels {
		return
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].e.lastRelease.Before(candidates[j].e.lastRelease)
	})

	for _, c := range candidates {
		if !c.e.mu.TryLock() {
			continue
		}
		if c.e.session != nil && c.e.refCount == 0 {
			m.unloadLocked(c.id, c.e)
			c.e.mu.Unlock()
			return
		}
		c.e.mu.Unlock()
	}
}
