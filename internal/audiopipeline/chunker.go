// Package audiopipeline turns a live stream of chat-completion text tokens
// into synthesizable sentences and fans the resulting text+audio deltas
// back out as a single merged SSE stream.
package audiopipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// TextChunker accumulates tokens and yields completed chunks. Implementations
// differ in what counts as "completed" — sentence boundaries vs. end-of-stream.
type TextChunker interface {
	AddToken(token string) error
	Close()
	// Next blocks until a chunk is ready, the chunker closes with nothing
	// left to flush (ok=false, err=nil), or ctx is cancelled.
	Next(ctx context.Context) (chunk string, ok bool, err error)
}

// ErrChunkerClosed is returned by AddToken once Close has been called.
var ErrChunkerClosed = errors.New("audiopipeline: chunker is closed")

// DefaultMinSentenceLength is the accumulation threshold below which a
// completed sentence is folded into the next one rather than emitted alone.
const DefaultMinSentenceLength = 20

var sentenceEndings = []byte{'.', '!', '?'}

// SentenceChunker emits text as soon as a sentence boundary ({. ! ?}) is
// seen, folding sentences shorter than minSentenceLength (after trimming)
// into the next completed sentence so a stream of short fragments doesn't
// trigger a TTS call per fragment. Single-producer (AddToken), single-
// consumer (Next) — the consumer suspends on a notify channel that
// AddToken and Close close and replace, the way the source's asyncio.Event
// gate wakes its waiter.
type SentenceChunker struct {
	minSentenceLength int

	mu             sync.Mutex
	notify         chan struct{}
	content        strings.Builder
	processedIndex int
	accumulated    string
	closed         bool
}

// NewSentenceChunker builds a chunker with the given minimum sentence
// length; a value <= 0 disables accumulation (every sentence is emitted
// on its own, matching the spec's "threshold 0" boundary case).
func NewSentenceChunker(minSentenceLength int) *SentenceChunker {
	return &SentenceChunker{
		minSentenceLength: minSentenceLength,
		notify:            make(chan struct{}),
	}
}

func (c *SentenceChunker) AddToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChunkerClosed
	}
	c.content.WriteString(token)
	c.wake()
	return nil
}

func (c *SentenceChunker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.wake()
}

// wake must be called with mu held; it releases every goroutine currently
// parked in Next by swapping in a fresh notify channel.
func (c *SentenceChunker) wake() {
	close(c.notify)
	c.notify = make(chan struct{})
}

// Next scans for the earliest sentence-ending punctuation at or after the
// last processed index, accumulating short sentences across calls. On
// close, any remainder (including anything still accumulated) is flushed
// once and then Next reports ok=false forever after.
func (c *SentenceChunker) Next(ctx context.Context) (string, bool, error) {
	for {
		c.mu.Lock()
		chunk, ok, wait := c.tryNext()
		if wait == nil {
			c.mu.Unlock()
			return chunk, ok, nil
		}
		c.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

// tryNext must be called with mu held. It returns a non-nil wait channel
// when the caller must block for more tokens or a close signal.
func (c *SentenceChunker) tryNext() (chunk string, ok bool, wait chan struct{}) {
	s := c.content.String()
	nextEnd := -1
	for _, ending := range sentenceEndings {
		pos := strings.IndexByte(s[c.processedIndex:], ending)
		if pos == -1 {
			continue
		}
		pos += c.processedIndex
		if nextEnd == -1 || pos < nextEnd {
			nextEnd = pos
		}
	}

	if nextEnd != -1 {
		sentenceEnd := nextEnd + 1
		for sentenceEnd < len(s) && (s[sentenceEnd] == ' ' || s[sentenceEnd] == '\t' || s[sentenceEnd] == '\n' || s[sentenceEnd] == '\r') {
			sentenceEnd++
		}
		newSentence := s[c.processedIndex:sentenceEnd]
		c.processedIndex = sentenceEnd

		combined := c.accumulated + newSentence
		if len(strings.TrimSpace(combined)) >= c.minSentenceLength {
			c.accumulated = ""
			return combined, true, nil
		}
		c.accumulated = combined
		return c.tryNext()
	}

	if c.closed {
		var remaining string
		if c.processedIndex < len(s) {
			remaining = s[c.processedIndex:]
		}
		final := c.accumulated + remaining
		c.accumulated = ""
		c.processedIndex = len(s)
		if strings.TrimSpace(final) != "" {
			return final, true, nil
		}
		return "", false, nil
	}

	return "", false, c.notify
}
