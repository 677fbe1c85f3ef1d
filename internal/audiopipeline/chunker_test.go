package audiopipeline

import (
	"context"
	"testing"
	"time"
)

func TestSentenceChunkerZeroThreshold(t *testing.T) {
	c := NewSentenceChunker(0)
	if err := c.AddToken("Hi. Yes. "); err != nil {
		t.Fatal(err)
	}
	c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first, ok, err := c.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("first Next() = %q, %v, %v", first, ok, err)
	}
	if first != "Hi. " {
		t.Errorf("first chunk = %q, want %q", first, "Hi. ")
	}

	second, ok, err := c.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("second Next() = %q, %v, %v", second, ok, err)
	}
	if second != "Yes. " {
		t.Errorf("second chunk = %q, want %q", second, "Yes. ")
	}

	_, ok, _ = c.Next(ctx)
	if ok {
		t.Error("expected no further chunks")
	}
}

func TestSentenceChunkerAccumulatesShortSentences(t *testing.T) {
	c := NewSentenceChunker(7)
	if err := c.AddToken("Hi. Yes. "); err != nil {
		t.Fatal(err)
	}
	c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	chunk, ok, err := c.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("Next() = %q, %v, %v", chunk, ok, err)
	}
	if chunk != "Hi. Yes. " {
		t.Errorf("chunk = %q, want %q", chunk, "Hi. Yes. ")
	}

	_, ok, _ = c.Next(ctx)
	if ok {
		t.Error("expected no further chunks")
	}
}

func TestSentenceChunkerAddAfterCloseFails(t *testing.T) {
	c := NewSentenceChunker(DefaultMinSentenceLength)
	c.Close()
	if err := c.AddToken("x"); err != ErrChunkerClosed {
		t.Errorf("AddToken after close = %v, want ErrChunkerClosed", err)
	}
}

func TestEOFChunkerYieldsOnceAfterClose(t *testing.T) {
	c := NewEOFChunker()
	_ = c.AddToken("foo")
	_ = c.AddToken("bar")
	c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	chunk, ok, err := c.Next(ctx)
	if err != nil || !ok || chunk != "foobar" {
		t.Fatalf("Next() = %q, %v, %v, want \"foobar\", true, nil", chunk, ok, err)
	}

	_, ok, _ = c.Next(ctx)
	if ok {
		t.Error("expected exactly one chunk from EOFChunker")
	}
}

func TestEOFChunkerEmptyOnCloseWithoutTokens(t *testing.T) {
	c := NewEOFChunker()
	c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok, err := c.Next(ctx)
	if err != nil || ok {
		t.Fatalf("Next() on empty closed chunker = ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestEOFChunkerAddAfterCloseFails(t *testing.T) {
	c := NewEOFChunker()
	c.Close()
	if err := c.AddToken("x"); err != ErrChunkerClosed {
		t.Errorf("AddToken after close = %v, want ErrChunkerClosed", err)
	}
}
