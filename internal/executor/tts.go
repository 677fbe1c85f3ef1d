package executor

import (
	"context"
	"fmt"
)

// Speed ranges differ per TTS family — this is the reason the spec keeps
// voice-pack and single-voice as distinct executor shapes instead of one
// parameterized interface.
const (
	VoicePackMinSpeed   = 0.5
	VoicePackMaxSpeed   = 2.0
	SingleVoiceMinSpeed = 0.25
	SingleVoiceMaxSpeed = 4.0
)

// OpenAISupportedVoiceNames is the OpenAI-standard voice alias set. A
// request naming one of these for a model that doesn't have a voice by
// that name is substituted to the model's default voice with a warning,
// rather than rejected outright.
var OpenAISupportedVoiceNames = []string{
	"alloy", "ash", "ballad", "coral", "echo", "sage", "shimmer", "verse",
}

func isOpenAIStandardVoice(name string) bool {
	for _, v := range OpenAISupportedVoiceNames {
		if v == name {
			return true
		}
	}
	return false
}

// ErrInvalidSpeed reports a speed value outside a family's accepted range.
type ErrInvalidSpeed struct {
	Speed    float64
	Min, Max float64
}

func (e *ErrInvalidSpeed) Error() string {
	return fmt.Sprintf("speed %v out of range [%v, %v]", e.Speed, e.Min, e.Max)
}

// ErrUnknownVoice reports a voice name that is neither a known voice of the
// loaded model nor an OpenAI-standard alias eligible for substitution.
type ErrUnknownVoice struct {
	Voice string
}

func (e *ErrUnknownVoice) Error() string {
	return fmt.Sprintf("unknown voice %q", e.Voice)
}

// PCMChunkIterator is a lazy pull sequence of raw PCM byte chunks —
// signed 16-bit little-endian mono at the session's native (or requested)
// sample rate. Close abandons synthesis early; safe after exhaustion.
type PCMChunkIterator interface {
	Next(ctx context.Context) ([]byte, bool, error)
	Close() error
}

// VoicePackNative is the native handle a voice-pack TTS backend wraps.
type VoicePackNative any

// VoicePackExecutor synthesizes speech from a model offering many named
// voices out of one loaded artifact (a Kokoro-style voice pack).
type VoicePackExecutor interface {
	Load(ctx context.Context, artifact Artifact, placement Placement) (*Session[VoicePackNative], error)
	Voices(sess *Session[VoicePackNative]) []string
	DefaultVoice(sess *Session[VoicePackNative]) string
	NativeSampleRate(sess *Session[VoicePackNative]) int
	Synthesize(ctx context.Context, sess *Session[VoicePackNative], text, voice string, speed float64, targetSampleRate int) (PCMChunkIterator, error)
}

// ResolveVoice applies the OpenAI-alias substitution rule: an unknown voice
// that is nonetheless an OpenAI-standard name falls back to the model's
// default voice (wasSubstituted=true, no error); any other unknown voice
// is rejected.
func ResolveVoice(requested string, known []string, defaultVoice string) (voice string, wasSubstituted bool, err error) {
	for _, v := range known {
		if v == requested {
			return requested, false, nil
		}
	}
	if isOpenAIStandardVoice(requested) {
		return defaultVoice, true, nil
	}
	return "", false, &ErrUnknownVoice{Voice: requested}
}

// SingleVoiceNative is the native handle a single-voice TTS backend wraps.
type SingleVoiceNative any

// SingleVoiceExecutor synthesizes speech from a model with exactly one
// baked-in voice (a Piper-style model).
type SingleVoiceExecutor interface {
	Load(ctx context.Context, artifact Artifact, placement Placement) (*Session[SingleVoiceNative], error)
	NativeSampleRate(sess *Session[SingleVoiceNative]) int
	Synthesize(ctx context.Context, sess *Session[SingleVoiceNative], text string, speed float64, targetSampleRate int) (PCMChunkIterator, error)
}

// ValidateSpeed checks speed against the family's accepted range.
func ValidateSpeed(speed, min, max float64) error {
	if speed < min || speed > max {
		return &ErrInvalidSpeed{Speed: speed, Min: min, Max: max}
	}
	return nil
}
