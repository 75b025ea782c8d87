package refine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maastricht-university/slidefuse/transcript"
)

func sampleSlides() []transcript.Slide {
	slides := []transcript.Slide{
		transcript.NewSlide("buy  now", transcript.SourceVisual, transcript.Seconds(0), transcript.Seconds(2), 100),
		transcript.NewSlide("50% of", transcript.SourceVisual, transcript.Seconds(2), transcript.Seconds(4), 100),
	}
	transcript.Renumber(slides)
	return slides
}

func TestApplyReplacesTexts(t *testing.T) {
	upper := Func(func(_ context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, s := range texts {
			out[i] = strings.ToUpper(s)
		}
		return out, nil
	})

	in := sampleSlides()
	got, err := Apply(context.Background(), upper, in, 100)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got[0].Text != "BUY  NOW" || got[1].Text != "50% OF" {
		t.Errorf("texts = %q, %q", got[0].Text, got[1].Text)
	}
	for i, s := range got {
		if s.Source != transcript.SourceAICleaned {
			t.Errorf("slide %d source = %s", i, s.Source)
		}
		if s.Number != i+1 || s.Start == nil {
			t.Errorf("slide %d lost numbering or timing: %+v", i, s)
		}
	}
	if in[0].Text != "buy  now" || in[0].Source != transcript.SourceVisual {
		t.Error("input slides were mutated")
	}
}

func TestApplyRejectsCountMismatch(t *testing.T) {
	short := Func(func(_ context.Context, texts []string) ([]string, error) {
		return texts[:1], nil
	})
	in := sampleSlides()
	got, err := Apply(context.Background(), short, in, 100)
	if !errors.Is(err, ErrRefinementMismatch) {
		t.Fatalf("err = %v, want ErrRefinementMismatch", err)
	}
	if len(got) != len(in) || got[0].Text != in[0].Text || got[1].ID != in[1].ID {
		t.Errorf("slides changed on mismatch: %+v", got)
	}
}

func TestApplyKeepsSlidesOnError(t *testing.T) {
	boom := errors.New("upstream down")
	failing := Func(func(context.Context, []string) ([]string, error) { return nil, boom })
	in := sampleSlides()
	got, err := Apply(context.Background(), failing, in, 100)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got[0].Text != in[0].Text {
		t.Error("slides changed on error")
	}
}

func TestApplyTruncatesAndSkipsNil(t *testing.T) {
	long := Func(func(_ context.Context, texts []string) ([]string, error) {
		return []string{"abcdefgh", "ijklmnop"}, nil
	})
	got, err := Apply(context.Background(), long, sampleSlides(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Text != "abc" || got[1].Text != "ijk" {
		t.Errorf("texts = %q, %q", got[0].Text, got[1].Text)
	}

	in := sampleSlides()
	if got, err := Apply(context.Background(), nil, in, 3); err != nil || got[0].Text != in[0].Text {
		t.Errorf("nil refiner should be a no-op; got %+v, %v", got, err)
	}
}
