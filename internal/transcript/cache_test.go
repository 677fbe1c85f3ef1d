package transcript

import (
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c := New(10, time.Minute)
	c.Put("audio_1", "hello there")

	text, ok := c.Get("audio_1")
	if !ok || text != "hello there" {
		t.Errorf("Get() = %q, %v, want %q, true", text, ok, "hello there")
	}
}

func TestCacheMissUnknownID(t *testing.T) {
	c := New(10, time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown audio id")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	c.Put("audio_1", "bye")
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("audio_1"); ok {
		t.Error("expected entry to have expired")
	}
}
