// Package executor defines the polymorphic inference capability the
// lifecycle manager loads and leases sessions of: one shape for ASR, two
// for TTS (voice-pack and single-voice), each a thin interface over a
// concrete backend reached over HTTP — the way the teacher's ASRClient and
// TTSClient reach their sidecar processes.
package executor

import (
	"context"
	"fmt"

	"github.com/speaches-go/gateway/internal/model"
)

// Backend names a hardware execution target an executor may place a
// session on, e.g. "cuda", "cpu", "directml". Ordering in a []Backend
// expresses priority: the first backend not in Exclude wins.
type Backend string

const (
	BackendCUDA      Backend = "cuda"
	BackendCPU       Backend = "cpu"
	BackendTensorRT  Backend = "tensorrt"
	BackendDirectML  Backend = "directml"
)

// Placement is the ordered backend preference plus exclusions an executor
// consults when constructing a session, and the per-backend option bags
// (e.g. ORT session options) it may need.
type Placement struct {
	Priority []Backend
	Exclude  map[Backend]struct{}
	Options  map[Backend]map[string]string
}

// Resolve returns the highest-priority backend not excluded, or "" if none
// qualifies. The HTTP executors record the result on the Session as is.
func (p Placement) Resolve() Backend {
	for _, b := range p.Priority {
		if _, excluded := p.Exclude[b]; excluded {
			continue
		}
		return b
	}
	return ""
}

// Artifact is the set of file paths on local storage backing a loadable
// model — the registry (out of scope) is what produces these; the
// executor only ever reads them.
type Artifact struct {
	ID    model.ID
	Root  string
	Files map[string]string // logical name (e.g. "model", "voices") -> path
}

// Session is a loaded, reusable inference object. It carries no lifecycle
// bookkeeping of its own (that's internal/lifecycle's job) — just whatever
// state a concrete executor needs to run transcribe/synthesize calls, plus
// a Close to release backend-side resources when the lifecycle manager
// unloads it.
type Session[T any] struct {
	Backend Backend
	Native  T
	closer  func() error
}

// NewSession wraps a native handle with the backend it was placed on and an
// optional close function invoked on unload.
func NewSession[T any](native T, backend Backend, closer func() error) *Session[T] {
	return &Session[T]{Backend: backend, Native: native, closer: closer}
}

// Close releases backend-side resources. Safe to call with a nil closer.
func (s *Session[T]) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// ErrLoadFailed wraps a concrete executor's load error with the model id
// that failed, for the lifecycle manager's LOAD_FAILED path.
type ErrLoadFailed struct {
	ID    model.ID
	Cause error
}

func (e *ErrLoadFailed) Error() string {
	return fmt.Sprintf("failed to load model %q: %v", string(e.ID), e.Cause)
}

func (e *ErrLoadFailed) Unwrap() error { return e.Cause }

// Loader constructs a *Session[T] for an artifact under a placement
// preference. The lifecycle manager calls this exactly once per load
// cycle and wraps it in ErrLoadFailed on error.
type Loader[T any] func(ctx context.Context, artifact Artifact, placement Placement) (*Session[T], error)
