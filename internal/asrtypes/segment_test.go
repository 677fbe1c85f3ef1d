package asrtypes

import "testing"

func TestSRTTimestamp(t *testing.T) {
	cases := map[float64]string{
		3601.234:  "01:00:01,234",
		23423.4234: "06:30:23,423",
	}
	for in, want := range cases {
		if got := SRTTimestamp(in); got != want {
			t.Errorf("SRTTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestVTTTimestamp(t *testing.T) {
	if got := VTTTimestamp(3601.234); got != "01:00:01.234" {
		t.Errorf("VTTTimestamp(3601.234) = %q, want 01:00:01.234", got)
	}
}

func TestValidGranularities(t *testing.T) {
	valid := [][]string{
		{},
		{"segment"},
		{"word"},
		{"word", "segment"},
		{"segment", "word"},
	}
	for _, g := range valid {
		if !ValidGranularities(g) {
			t.Errorf("ValidGranularities(%v) = false, want true", g)
		}
	}
	if ValidGranularities([]string{"paragraph"}) {
		t.Error("ValidGranularities([paragraph]) = true, want false")
	}
}

func TestSegmentsToSRT(t *testing.T) {
	seg := Segment{Start: 0, End: 1.5, Text: "hello"}
	got := SegmentsToSRT(seg, 0)
	want := "1\n00:00:00,000 --> 00:00:01,500\nhello\n\n"
	if got != want {
		t.Errorf("SegmentsToSRT = %q, want %q", got, want)
	}
}

func TestSegmentsToVTTHeader(t *testing.T) {
	seg := Segment{Start: 5, End: 6, Text: "hi"}
	got := SegmentsToVTT(seg, 0)
	want := "WEBVTT\n\n00:00:00.000 --> 00:00:06.000\nhi\n\n"
	if got != want {
		t.Errorf("SegmentsToVTT(i=0) = %q, want %q", got, want)
	}
}
