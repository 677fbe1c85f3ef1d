package audiopipeline

import "testing"

func TestStripMarkdownEmphasis(t *testing.T) {
	cases := map[string]string{
		"Hello my name is **Jon**": "Hello my name is Jon",
		"I *really* like this":     "I really like this",
		"This is __underlined__":   "This is underlined",
		"This is _italic_":         "This is italic",
		"no emphasis here":         "no emphasis here",
	}
	for in, want := range cases {
		if got := StripMarkdownEmphasis(in); got != want {
			t.Errorf("StripMarkdownEmphasis(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripMarkdownEmphasisIdempotent(t *testing.T) {
	inputs := []string{
		"Hello my name is **Jon**",
		"I *really* like this",
		"plain text with no markers",
		"nested **bold *and italic* text**",
	}
	for _, in := range inputs {
		once := StripMarkdownEmphasis(in)
		twice := StripMarkdownEmphasis(once)
		if once != twice {
			t.Errorf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
	plain := "plain text with no markers"
	if StripMarkdownEmphasis(plain) != plain {
		t.Errorf("StripMarkdownEmphasis changed a marker-free string: %q", plain)
	}
}

func TestStripEmojis(t *testing.T) {
	in := "Hello \U0001F600 world ✂"
	want := "Hello  world "
	if got := StripEmojis(in); got != want {
		t.Errorf("StripEmojis(%q) = %q, want %q", in, got, want)
	}
}

func TestPrepareForSynthesisEmptyResidue(t *testing.T) {
	_, ok := PrepareForSynthesis("  \U0001F600  ")
	if ok {
		t.Error("expected ok=false for emoji-only input")
	}
}
