// Package refine passes slide texts through an external cleanup step, such as
// an LLM, and only trusts answers that line up one-to-one with the input.
package refine

import (
	"context"
	"errors"
	"fmt"

	"github.com/maastricht-university/slidefuse/textnorm"
	"github.com/maastricht-university/slidefuse/transcript"
)

// ErrRefinementMismatch is returned when the refiner answers with a different
// number of texts than it was given.
var ErrRefinementMismatch = errors.New("refinement count mismatch")

// Refiner rewrites an ordered list of texts.
type Refiner interface {
	Refine(ctx context.Context, texts []string) ([]string, error)
}

// Func adapts a plain function to Refiner.
type Func func(ctx context.Context, texts []string) ([]string, error)

func (f Func) Refine(ctx context.Context, texts []string) ([]string, error) { return f(ctx, texts) }

// Apply refines slides in order. On any failure the input slides are returned
// unchanged alongside the error. Refined slides are marked ai_cleaned and
// renumbered.
func Apply(ctx context.Context, r Refiner, slides []transcript.Slide, charLimit int) ([]transcript.Slide, error) {
	if r == nil || len(slides) == 0 {
		return slides, nil
	}
	texts := make([]string, len(slides))
	for i, s := range slides {
		texts[i] = s.Text
	}

	out, err := r.Refine(ctx, texts)
	if err != nil {
		return slides, fmt.Errorf("refine: %w", err)
	}
	if len(out) != len(texts) {
		return slides, fmt.Errorf("%w: sent %d, got %d", ErrRefinementMismatch, len(texts), len(out))
	}

	refined := make([]transcript.Slide, len(slides))
	for i, s := range slides {
		s.Text = textnorm.Truncate(out[i], charLimit)
		s.Source = transcript.SourceAICleaned
		refined[i] = s
	}
	transcript.Renumber(refined)
	return refined, nil
}
