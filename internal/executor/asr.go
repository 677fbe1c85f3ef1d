package executor

import (
	"context"

	"github.com/speaches-go/gateway/internal/asrtypes"
)

// TranscribeTask selects between transcription (source-language text) and
// translation (always to English), matching faster-whisper's task knob.
type TranscribeTask string

const (
	TaskTranscribe TranscribeTask = "transcribe"
	TaskTranslate  TranscribeTask = "translate"
)

// TranscribeOptions carries every per-request knob the ASR family accepts.
type TranscribeOptions struct {
	Task             TranscribeTask
	Language         string
	InitialPrompt    string
	Temperature      float64
	WordTimestamps   bool
	VADFilter        bool
	Hotwords         string
}

// TranscribeInfo describes the overall result of one transcription call,
// alongside the lazy segment stream.
type TranscribeInfo struct {
	Language string
	Duration float64
	Options  TranscribeOptions
}

// SegmentIterator is a lazy pull sequence of transcription segments. Next
// returns (segment, true, nil) while segments remain, (zero, false, nil) at
// clean end of stream, or (zero, false, err) on failure. Close abandons the
// underlying inference iterator — safe to call after exhaustion or early.
type SegmentIterator interface {
	Next(ctx context.Context) (asrtypes.Segment, bool, error)
	Close() error
}

// ASRNative is the native handle an ASR backend wraps in a Session.
type ASRNative any

// ASRExecutor transcribes or translates decoded mono float32 PCM into
// timestamped segments. One instance exists per concrete ASR backend; the
// lifecycle manager holds one Manager[ASRNative] per backend as well.
type ASRExecutor interface {
	Load(ctx context.Context, artifact Artifact, placement Placement) (*Session[ASRNative], error)
	Transcribe(ctx context.Context, sess *Session[ASRNative], audio []float32, sampleRate int, opts TranscribeOptions) (SegmentIterator, TranscribeInfo, error)
}
