package speech

import (
	"math"
	"testing"

	"github.com/maastricht-university/slidefuse/transcript"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func tok(text string, start, dur float64) transcript.SpeechToken {
	return transcript.SpeechToken{Text: text, Start: start, Duration: dur}
}

func TestSegmentTrailingPeriod(t *testing.T) {
	segs := NewSegmenter(DefaultGapSeconds).Segment([]transcript.SpeechToken{
		tok("Hello", 0.0, 0.5),
		tok("world.", 0.6, 0.4),
	})
	if len(segs) != 1 {
		t.Fatalf("want 1 segment, got %d: %+v", len(segs), segs)
	}
	got := segs[0]
	if got.Text != "Hello world." || !near(got.Start, 0) || !near(got.End, 1.0) {
		t.Errorf("got %+v", got)
	}
}

func TestSegmentBoundaries(t *testing.T) {
	tokens := []transcript.SpeechToken{
		tok("Is", 0.0, 0.2),
		tok("this", 0.3, 0.2),
		tok("on?", 0.6, 0.3),
		tok("Great", 1.0, 0.4),
		tok("deal", 1.5, 0.4), // ends 1.9, next starts 3.5: gap 1.6
		tok("wow!", 3.5, 0.3),
		tok("trailing", 4.0, 0.3),
		tok("words", 4.4, 0.3),
	}
	segs := NewSegmenter(1.5).Segment(tokens)

	want := []transcript.SpeechSegment{
		{Text: "Is this on?", Start: 0.0, End: 0.9},
		{Text: "Great deal", Start: 1.0, End: 1.9},
		{Text: "wow!", Start: 3.5, End: 3.8},
		{Text: "trailing words", Start: 4.0, End: 4.7},
	}
	if len(segs) != len(want) {
		t.Fatalf("want %d segments, got %d: %+v", len(want), len(segs), segs)
	}
	for i := range want {
		if segs[i].Text != want[i].Text || !near(segs[i].Start, want[i].Start) || !near(segs[i].End, want[i].End) {
			t.Errorf("segment %d = %+v, want %+v", i, segs[i], want[i])
		}
	}
}

func TestSegmentGapAtThresholdDoesNotSplit(t *testing.T) {
	segs := NewSegmenter(1.5).Segment([]transcript.SpeechToken{
		tok("one", 0, 0.5),
		tok("two", 2.0, 0.5), // gap exactly 1.5
	})
	if len(segs) != 1 || segs[0].Text != "one two" {
		t.Errorf("got %+v", segs)
	}
}

func TestSegmentDropsBlankBuffers(t *testing.T) {
	segs := NewSegmenter(0).Segment([]transcript.SpeechToken{
		tok("  ", 0, 0.1),
		tok("", 5, 0.1),
	})
	if len(segs) != 0 {
		t.Errorf("want no segments, got %+v", segs)
	}
	if got := NewSegmenter(0).Segment(nil); len(got) != 0 {
		t.Errorf("want no segments for nil input, got %+v", got)
	}
}

func TestNewSegmenterDefaultsGap(t *testing.T) {
	if s := NewSegmenter(-1); s.GapSeconds != DefaultGapSeconds {
		t.Errorf("GapSeconds = %v", s.GapSeconds)
	}
}
