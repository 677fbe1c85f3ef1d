package asrtypes

// ResponseFormat selects how a transcription/translation result is rendered.
type ResponseFormat string

const (
	FormatText         ResponseFormat = "text"
	FormatJSON         ResponseFormat = "json"
	FormatVerboseJSON  ResponseFormat = "verbose_json"
	FormatSRT          ResponseFormat = "srt"
	FormatVTT          ResponseFormat = "vtt"
)

// TranscriptionResponse is the {"text": "..."} shape OpenAI's non-verbose
// transcription endpoints return.
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// VerboseTranscriptionResponse carries full segment/word timing alongside
// the flattened text.
type VerboseTranscriptionResponse struct {
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Text     string    `json:"text"`
	Words    []Word    `json:"words,omitempty"`
	Segments []Segment `json:"segments"`
}

// NewVerboseResponse builds a VerboseTranscriptionResponse from a completed
// segment list, attaching word timings only when word_timestamps was set.
func NewVerboseResponse(segments []Segment, language string, duration float64, wordTimestamps bool) VerboseTranscriptionResponse {
	resp := VerboseTranscriptionResponse{
		Language: language,
		Duration: duration,
		Text:     SegmentsToText(segments),
		Segments: segments,
	}
	if wordTimestamps {
		resp.Words = WordsFromSegments(segments)
	}
	return resp
}

// Granularities allowed for timestamp_granularities[], enumerated exactly
// as the literal allow-list: empty, [segment], [word], or either order of
// both together.
var validGranularityCombos = [][]string{
	{},
	{"segment"},
	{"word"},
	{"word", "segment"},
	{"segment", "word"},
}

// ValidGranularities reports whether granularities is one of the literal
// allowed multisets.
func ValidGranularities(granularities []string) bool {
	for _, combo := range validGranularityCombos {
		if sameElements(combo, granularities) {
			return true
		}
	}
	return false
}

func sameElements(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WantsWordTimestamps reports whether "word" appears in granularities.
func WantsWordTimestamps(granularities []string) bool {
	for _, g := range granularities {
		if g == "word" {
			return true
		}
	}
	return false
}
