// Package speech groups word-level recognition tokens into sentences.
package speech

import (
	"strings"

	"github.com/maastricht-university/slidefuse/transcript"
)

// DefaultGapSeconds is the pause that ends a sentence without punctuation.
const DefaultGapSeconds = 1.5

// Segmenter consolidates tokens into segments in a single pass.
type Segmenter struct {
	GapSeconds float64
}

func NewSegmenter(gap float64) *Segmenter {
	if gap <= 0 {
		gap = DefaultGapSeconds
	}
	return &Segmenter{GapSeconds: gap}
}

// Segment splits tokens on terminal punctuation, on pauses longer than the
// gap, and at the end of the stream. Tokens must be in temporal order.
func (s *Segmenter) Segment(tokens []transcript.SpeechToken) []transcript.SpeechSegment {
	var (
		out   []transcript.SpeechSegment
		words []string
		start float64
		end   float64
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(words, " "))
		if text != "" {
			out = append(out, transcript.SpeechSegment{Text: text, Start: start, End: end})
		}
		words = words[:0]
	}

	for i, tok := range tokens {
		w := strings.TrimSpace(tok.Text)
		if w != "" {
			if len(words) == 0 {
				start = tok.Start
			}
			words = append(words, w)
			end = tok.End()
		}

		last := i == len(tokens)-1
		switch {
		case last:
			flush()
		case endsSentence(w):
			flush()
		case tokens[i+1].Start-tok.End() > s.GapSeconds:
			flush()
		}
	}
	return out
}

func endsSentence(w string) bool {
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}
