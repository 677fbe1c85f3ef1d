package audiopipeline

import (
	"regexp"
	"strings"
)

var (
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*(.*?)\*`)
	underlinePattern  = regexp.MustCompile(`__(.*?)__`)
	italicUnderscore  = regexp.MustCompile(`_(.*?)_`)
)

// StripMarkdownEmphasis removes bold/italic/underline emphasis markers,
// applied in the order bold, italic, underline, italic-underscore so that
// "**bold**" doesn't get mistaken for two italics first.
func StripMarkdownEmphasis(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = underlinePattern.ReplaceAllString(text, "$1")
	text = italicUnderscore.ReplaceAllString(text, "$1")
	return text
}

// emojiRanges are the Unicode codepoint ranges stripped from text before
// synthesis, covering emoticons, pictographs, transport symbols, and the
// handful of dingbat/misc-symbol ranges commonly mixed into chat output.
var emojiRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map symbols
	{0x1F700, 0x1F77F}, // alchemical symbols
	{0x1F780, 0x1F7FF}, // geometric shapes extended
	{0x1F800, 0x1F8FF}, // supplemental arrows-C
	{0x1F900, 0x1F9FF}, // supplemental symbols and pictographs
	{0x1FA00, 0x1FA6F}, // chess symbols
	{0x1FA70, 0x1FAFF}, // symbols and pictographs extended-A
	{0x2702, 0x27B0},   // dingbats
	{0x24C2, 0x1F251},
}

func isEmoji(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

// StripEmojis removes every codepoint falling in the emoji ranges above.
func StripEmojis(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isEmoji(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PrepareForSynthesis applies the speech-request text pipeline: trim,
// strip markdown emphasis, strip emojis, trim again. Returns "" (and
// ok=false) when nothing synthesizable remains.
func PrepareForSynthesis(text string) (cleaned string, ok bool) {
	text = strings.TrimSpace(text)
	text = StripMarkdownEmphasis(text)
	text = StripEmojis(text)
	text = strings.TrimSpace(text)
	return text, text != ""
}
