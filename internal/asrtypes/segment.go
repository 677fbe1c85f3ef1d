// Package asrtypes holds the transcription result shapes and the
// text/SRT/VTT formatters used to render them.
package asrtypes

import (
	"fmt"
	"strings"
)

// Word is one timed token within a Segment.
type Word struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

// Segment is roughly one breath group of transcribed speech.
type Segment struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Words            []Word  `json:"words,omitempty"`
}

// WordsFromSegments flattens the word timings of every segment, in order.
func WordsFromSegments(segments []Segment) []Word {
	var words []Word
	for _, s := range segments {
		words = append(words, s.Words...)
	}
	return words
}

// SegmentsToText concatenates every segment's text and trims the result.
func SegmentsToText(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return strings.TrimSpace(b.String())
}

// SRTTimestamp formats seconds as an SRT timestamp: HH:MM:SS,mmm.
func SRTTimestamp(ts float64) string {
	return formatTimestamp(ts, ",")
}

// VTTTimestamp formats seconds as a VTT timestamp: HH:MM:SS.mmm.
func VTTTimestamp(ts float64) string {
	return formatTimestamp(ts, ".")
}

func formatTimestamp(ts float64, sep string) string {
	hours := int(ts / 3600)
	minutes := int((ts - float64(hours)*3600) / 60)
	wholeMinutes := float64(hours)*3600 + float64(minutes)*60
	seconds := int(ts - wholeMinutes)
	millis := int(ts*1000) % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, sep, millis)
}

// SegmentsToVTT renders segment i of a VTT cue stream; i==0 also emits the
// "WEBVTT" header and treats the cue's start as 0.0 per the upstream quirk.
func SegmentsToVTT(segment Segment, i int) string {
	start := segment.Start
	if i == 0 {
		start = 0.0
	}
	cue := fmt.Sprintf("%s --> %s\n%s\n\n", VTTTimestamp(start), VTTTimestamp(segment.End), segment.Text)
	if i == 0 {
		return "WEBVTT\n\n" + cue
	}
	return cue
}

// SegmentsToSRT renders segment i (0-indexed) as a 1-indexed SRT cue.
func SegmentsToSRT(segment Segment, i int) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n", i+1, SRTTimestamp(segment.Start), SRTTimestamp(segment.End), segment.Text)
}

// FullVTT joins every segment's cue into one complete VTT document.
func FullVTT(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		b.WriteString(SegmentsToVTT(s, i))
	}
	return b.String()
}

// FullSRT joins every segment's cue into one complete SRT document.
func FullSRT(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		b.WriteString(SegmentsToSRT(s, i))
	}
	return b.String()
}
