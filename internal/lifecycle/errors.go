// Package lifecycle implements the self-disposing, reference-counted,
// TTL-driven model session cache: one Manager[T] per executor family.
package lifecycle

import (
	"fmt"

	"github.com/speaches-go/gateway/internal/model"
)

// ErrNotFound means the loader could not produce a session because the
// backing artifact is absent (e.g. not downloaded): Manager.Lease returns it
// when the loader's error wraps a model.ErrUnknownModel.
type ErrNotFound struct {
	ID model.ID
}

func (e *ErrNotFound) Error() string { return fmt.Sprintf("model %q not found", string(e.ID)) }

// ErrLoadFailed wraps a loader failure that isn't a plain not-found.
type ErrLoadFailed struct {
	ID    model.ID
	Cause error
}

func (e *ErrLoadFailed) Error() string {
	return fmt.Sprintf("failed to load model %q: %v", string(e.ID), e.Cause)
}

func (e *ErrLoadFailed) Unwrap() error { return e.Cause }

// ErrBusy is returned by ForceUnload when the entry still has active leases.
type ErrBusy struct {
	ID model.ID
}

func (e *ErrBusy) Error() string { return fmt.Sprintf("model %q is in use", string(e.ID)) }

// ErrNotLoaded is returned by ForceUnload when the entry has no session.
type ErrNotLoaded struct {
	ID model.ID
}

func (e *ErrNotLoaded) Error() string { return fmt.Sprintf("model %q is not loaded", string(e.ID)) }
