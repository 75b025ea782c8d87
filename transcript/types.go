// Package transcript defines the observation inputs and slide outputs of a
// fusion run.
package transcript

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/maastricht-university/slidefuse/textnorm"
)

// DefaultSlideCharLimit caps slide text when no limit is configured.
const DefaultSlideCharLimit = 1000

// FrameObservation is the OCR output for one sampled frame.
type FrameObservation struct {
	Timestamp  float64  `json:"timestamp"` // sec
	Lines      []string `json:"lines"`     // recognizer order, top-to-bottom
	Confidence float64  `json:"confidence"`
}

// Keys returns the normalized line set, always derived from Lines.
func (f FrameObservation) Keys() map[string]struct{} {
	return f.KeysWith(textnorm.DefaultRules())
}

// KeysWith is Keys under custom cleaning rules.
func (f FrameObservation) KeysWith(r textnorm.Rules) map[string]struct{} {
	set := make(map[string]struct{}, len(f.Lines))
	for _, raw := range f.Lines {
		cleaned, ok := r.CleanLine(raw)
		if !ok {
			continue
		}
		if k := textnorm.NormalizedKey(cleaned); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// SpeechToken is one recognized word.
type SpeechToken struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // sec
	Duration float64 `json:"duration"` // sec
}

func (t SpeechToken) End() float64 { return t.Start + t.Duration }

// SpeechSegment is a sentence-like run of tokens.
type SpeechSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Source string

const (
	SourceVisual    Source = "visual"
	SourceSpeech    Source = "speech"
	SourceMerged    Source = "merged"
	SourceManual    Source = "manual"
	SourceAICleaned Source = "ai_cleaned"
)

type ContentType string

const (
	ContentTextOnly          ContentType = "text_only"
	ContentVoiceoverOnly     ContentType = "voiceover_only"
	ContentVoiceoverPlusText ContentType = "voiceover_plus_text"
	ContentEmpty             ContentType = "empty"
)

// Slide is the durable output unit.
type Slide struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Number int      `json:"slide_number"`
	Start  *float64 `json:"start_timestamp,omitempty"`
	End    *float64 `json:"end_timestamp,omitempty"`
	Source Source   `json:"source"`
}

// Result is what one fusion run returns.
type Result struct {
	Slides            []Slide     `json:"slides"`
	ContentType       ContentType `json:"content_type"`
	AverageConfidence float64     `json:"average_confidence"`
}

// Bundle is the on-disk pairing of both observation streams.
type Bundle struct {
	Frames []FrameObservation `json:"frames"`
	Tokens []SpeechToken      `json:"tokens"`
}

var slideNamespace = uuid.MustParse("6f1c2b7e-4d1a-5c3e-9a8b-2f0e7d6c5b4a")

// NewSlide builds a slide with text capped at limit runes. Start and end are
// optional; pass nil for slides with no time span.
func NewSlide(text string, source Source, start, end *float64, limit int) Slide {
	return Slide{
		Text:   textnorm.Truncate(text, limit),
		Start:  start,
		End:    end,
		Source: source,
	}
}

// Renumber assigns contiguous 1-based numbers and deterministic IDs.
func Renumber(slides []Slide) {
	for i := range slides {
		slides[i].Number = i + 1
		slides[i].ID = SlideID(slides[i])
	}
}

// SlideID is a name-based UUID over number, source and text, so identical
// runs produce identical IDs.
func SlideID(s Slide) string {
	name := fmt.Sprintf("%d|%s|%s", s.Number, s.Source, s.Text)
	return uuid.NewSHA1(slideNamespace, []byte(name)).String()
}

// Seconds returns a pointer to v, for optional timestamps.
func Seconds(v float64) *float64 { return &v }
