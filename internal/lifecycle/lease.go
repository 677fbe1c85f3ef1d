package lifecycle

import (
	"sync"

	"github.com/speaches-go/gateway/internal/executor"
	"github.com/speaches-go/gateway/internal/model"
)

// Lease is a scope-bound handle guaranteeing a loaded session for its
// holder's lifetime. Callers never see the refcount directly; they acquire
// via Manager.Lease and must call Release exactly once, typically via
// `defer lease.Release()` immediately after a successful Lease call — the
// language's own defer semantics stand in for the source's context-manager
// enter/exit pairing.
type Lease[T any] struct {
	id      model.ID
	mgr     *Manager[T]
	entry   *entry[T]
	session *executor.Session[T]

	once sync.Once
}

// Session returns the leased session. Valid until Release is called.
func (l *Lease[T]) Session() *executor.Session[T] {
	return l.session
}

// Release decrements the reference count, arming or firing the idle-unload
// policy as needed. Safe to call more than once; only the first call has
// effect, so `defer lease.Release()` composes safely with an explicit
// earlier release on a success path.
func (l *Lease[T]) Release() {
	l.once.Do(func() {
		l.mgr.release(l.id, l.entry)
	})
}
