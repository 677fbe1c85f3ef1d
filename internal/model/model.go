// Package model defines the model identity, alias, and family-classification
// types shared across the executor, lifecycle, and HTTP layers.
package model

import (
	"fmt"
	"strings"
)

// ID identifies a model repository, e.g. "Systran/faster-distil-whisper-large-v3"
// or "hexgrad/Kokoro-82M". It is always the alias-resolved, canonical form.
type ID string

// Owner returns the part of the ID before the first "/", mirroring the
// upstream convention of treating the HF namespace as the owning org.
func (id ID) Owner() string {
	s := string(id)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

// Task is the OpenAI-style pipeline tag a model serves.
type Task string

const (
	TaskASR Task = "automatic-speech-recognition"
	TaskTTS Task = "text-to-speech"
)

// Family classifies a model's runtime shape. The lifecycle manager and
// executor layer key their behavior off this rather than off Task, since TTS
// splits into two materially different execution strategies.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyASR
	FamilyTTSVoicePack  // one model, many selectable voices (e.g. Kokoro)
	FamilyTTSSingleVoice // one model, one baked-in voice (e.g. Piper)
)

func (f Family) String() string {
	switch f {
	case FamilyASR:
		return "automatic-speech-recognition"
	case FamilyTTSVoicePack:
		return "text-to-speech-voice-pack"
	case FamilyTTSSingleVoice:
		return "text-to-speech-single-voice"
	default:
		return "unknown"
	}
}

// Info is the catalogue entry returned by /v1/models.
type Info struct {
	ID       ID       `json:"id"`
	Object   string   `json:"object"`
	Created  int64    `json:"created"`
	OwnedBy  string   `json:"owned_by"`
	Task     Task     `json:"task"`
	Language []string `json:"language,omitempty"`
}

// NewInfo builds a catalogue entry with the object field OpenAI expects.
func NewInfo(id ID, task Task, language []string) Info {
	return Info{
		ID:       id,
		Object:   "model",
		OwnedBy:  id.Owner(),
		Task:     task,
		Language: language,
	}
}

// ErrUnknownModel is returned by classifiers/registries when a model id does
// not resolve to anything loadable.
type ErrUnknownModel struct {
	ID ID
}

func (e *ErrUnknownModel) Error() string {
	return fmt.Sprintf("model %q not found", string(e.ID))
}
