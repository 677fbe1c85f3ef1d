package audiopipeline

import (
	"context"
	"strings"
	"sync"
)

// EOFChunker accumulates every token and yields it all as a single chunk
// only once Close is called — useful when a consumer wants the whole
// response in one shot rather than sentence-by-sentence.
type EOFChunker struct {
	mu      sync.Mutex
	notify  chan struct{}
	content strings.Builder
	closed  bool
	flushed bool
}

// NewEOFChunker builds an EOFChunker.
func NewEOFChunker() *EOFChunker {
	return &EOFChunker{notify: make(chan struct{})}
}

func (c *EOFChunker) AddToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChunkerClosed
	}
	c.content.WriteString(token)
	c.wake()
	return nil
}

func (c *EOFChunker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.wake()
}

func (c *EOFChunker) wake() {
	close(c.notify)
	c.notify = make(chan struct{})
}

// Next returns the full accumulated content exactly once, after Close, and
// ok=false on every call thereafter (including when nothing was ever added).
func (c *EOFChunker) Next(ctx context.Context) (string, bool, error) {
	for {
		c.mu.Lock()
		if c.closed {
			if c.flushed {
				c.mu.Unlock()
				return "", false, nil
			}
			c.flushed = true
			content := c.content.String()
			c.mu.Unlock()
			if content == "" {
				return "", false, nil
			}
			return content, true, nil
		}
		wait := c.notify
		c.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}
