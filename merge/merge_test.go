package merge

import (
	"fmt"
	"testing"

	"github.com/maastricht-university/slidefuse/transcript"
)

func frame(ts, conf float64, lines ...string) transcript.FrameObservation {
	return transcript.FrameObservation{Timestamp: ts, Lines: lines, Confidence: conf}
}

func tok(text string, start, dur float64) transcript.SpeechToken {
	return transcript.SpeechToken{Text: text, Start: start, Duration: dur}
}

func assertContiguous(t *testing.T, res transcript.Result) {
	t.Helper()
	if len(res.Slides) == 0 {
		t.Fatal("result has no slides")
	}
	for i, s := range res.Slides {
		if s.Number != i+1 {
			t.Errorf("slide %d numbered %d", i, s.Number)
		}
		if s.ID == "" {
			t.Errorf("slide %d has no id", i)
		}
	}
}

func TestFuseTextOnly(t *testing.T) {
	var frames []transcript.FrameObservation
	for i := 0; i < 5; i++ {
		frames = append(frames, frame(float64(i), 0.9, "BUY NOW"))
	}
	res := Fuse(frames, nil)
	assertContiguous(t, res)

	if res.ContentType != transcript.ContentTextOnly {
		t.Errorf("content type = %s", res.ContentType)
	}
	if len(res.Slides) != 1 || res.Slides[0].Text != "BUY NOW" || res.Slides[0].Source != transcript.SourceVisual {
		t.Fatalf("slides = %+v", res.Slides)
	}
	if s := res.Slides[0]; *s.Start != 0 || *s.End != 4 {
		t.Errorf("span = %v..%v", *s.Start, *s.End)
	}
	if res.AverageConfidence < 0.8999 || res.AverageConfidence > 0.9001 {
		t.Errorf("average confidence = %v", res.AverageConfidence)
	}
}

func TestFuseVoiceoverOnly(t *testing.T) {
	res := Fuse(nil, []transcript.SpeechToken{
		tok("Hello", 0.0, 0.5),
		tok("world.", 0.6, 0.4),
		tok("Bye", 1.2, 0.3),
	})
	assertContiguous(t, res)

	if res.ContentType != transcript.ContentVoiceoverOnly {
		t.Errorf("content type = %s", res.ContentType)
	}
	if len(res.Slides) != 2 {
		t.Fatalf("slides = %+v", res.Slides)
	}
	if res.Slides[0].Text != "Hello world." || res.Slides[1].Text != "Bye" {
		t.Errorf("texts = %q, %q", res.Slides[0].Text, res.Slides[1].Text)
	}
	for _, s := range res.Slides {
		if s.Source != transcript.SourceSpeech {
			t.Errorf("source = %s", s.Source)
		}
	}
	if res.AverageConfidence != 1.0 {
		t.Errorf("average confidence = %v", res.AverageConfidence)
	}
}

func TestMergeAnnotatesOnScreenText(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	frames := []transcript.FrameObservation{frame(2.0, 0.8, "50% OFF")}
	segments := []transcript.SpeechSegment{{Text: "check this out", Start: 1.0, End: 3.0}}

	res := m.Merge(m.OCRSlides(frames), segments, frames)
	assertContiguous(t, res)

	if res.ContentType != transcript.ContentVoiceoverPlusText {
		t.Errorf("content type = %s", res.ContentType)
	}
	if len(res.Slides) != 1 {
		t.Fatalf("slides = %+v", res.Slides)
	}
	if got := res.Slides[0].Text; got != "check this out\n[On-screen: 50% OFF]" {
		t.Errorf("text = %q", got)
	}
	if res.Slides[0].Source != transcript.SourceMerged {
		t.Errorf("source = %s", res.Slides[0].Source)
	}
}

func TestMergeSkipsSpokenOnScreenText(t *testing.T) {
	frames := []transcript.FrameObservation{
		frame(0.5, 0.9, "Free Shipping!"),
		frame(4.0, 0.9, "Visit our store"),
	}
	tokens := []transcript.SpeechToken{
		tok("We", 0, 0.25),
		tok("offer", 0.25, 0.25),
		tok("free", 0.5, 0.25),
		tok("shipping.", 0.75, 0.25),
		tok("Come", 3.5, 0.25),
		tok("by", 3.75, 0.25),
		tok("soon.", 4.0, 0.5),
	}
	res := Fuse(frames, tokens)
	assertContiguous(t, res)

	if res.ContentType != transcript.ContentVoiceoverPlusText {
		t.Fatalf("content type = %s", res.ContentType)
	}
	want := []string{
		"We offer free shipping.",
		"Come by soon.\n[On-screen: Visit our store]",
	}
	if len(res.Slides) != len(want) {
		t.Fatalf("slides = %+v", res.Slides)
	}
	for i, w := range want {
		if res.Slides[i].Text != w {
			t.Errorf("slide %d = %q, want %q", i, res.Slides[i].Text, w)
		}
	}
}

func TestFuseEmpty(t *testing.T) {
	res := Fuse(nil, nil)
	assertContiguous(t, res)

	if res.ContentType != transcript.ContentEmpty || res.AverageConfidence != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Slides) != 1 {
		t.Fatalf("slides = %+v", res.Slides)
	}
	s := res.Slides[0]
	if s.Text != "" || s.Number != 1 || s.Source != transcript.SourceManual || s.Start != nil || s.End != nil {
		t.Errorf("placeholder = %+v", s)
	}
}

func TestFuseOnlyNoiseFallsBackToEmpty(t *testing.T) {
	frames := []transcript.FrameObservation{frame(0, 0.3, "##", "~~~~")}
	res := Fuse(frames, nil)
	assertContiguous(t, res)
	if res.ContentType != transcript.ContentEmpty {
		t.Errorf("content type = %s", res.ContentType)
	}
	if res.AverageConfidence != 0.3 {
		t.Errorf("average confidence = %v", res.AverageConfidence)
	}
}

func TestFuseAlwaysNonEmptyAndDeterministic(t *testing.T) {
	inputs := []struct {
		frames []transcript.FrameObservation
		tokens []transcript.SpeechToken
	}{
		{nil, nil},
		{[]transcript.FrameObservation{frame(0, 1, "Slide one"), frame(5, 1, "Slide two")}, nil},
		{nil, []transcript.SpeechToken{tok("   ", 0, 1)}},
		{[]transcript.FrameObservation{frame(1, 0.7, "Caption")}, []transcript.SpeechToken{tok("Talk", 0, 2)}},
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			a := Fuse(in.frames, in.tokens)
			b := Fuse(in.frames, in.tokens)
			assertContiguous(t, a)
			if len(a.Slides) != len(b.Slides) {
				t.Fatalf("runs differ: %+v vs %+v", a, b)
			}
			for j := range a.Slides {
				if a.Slides[j].ID != b.Slides[j].ID || a.Slides[j].Text != b.Slides[j].Text {
					t.Errorf("slide %d differs between runs", j)
				}
			}
		})
	}
}

func TestOCRSlidesNumberedByTime(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	slides := m.OCRSlides([]transcript.FrameObservation{
		frame(10, 1, "Third"),
		frame(0, 1, "First slide"),
		frame(5, 1, "Second slide"),
	})
	want := []string{"First slide", "Second slide", "Third"}
	if len(slides) != len(want) {
		t.Fatalf("slides = %+v", slides)
	}
	for i, w := range want {
		if slides[i].Text != w || slides[i].Number != i+1 {
			t.Errorf("slide %d = %+v", i, slides[i])
		}
	}
}
