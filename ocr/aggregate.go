package ocr

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/slidefuse/textnorm"
	"github.com/maastricht-university/slidefuse/transcript"
)

// lineAggregate accumulates every reading of one normalized line.
type lineAggregate struct {
	key          string
	variants     map[string]int
	total        int
	firstFrame   int
	firstLine    int
	lineIndexSum int
}

func (a *lineAggregate) avgLineIndex() float64 {
	return float64(a.lineIndexSum) / float64(a.total)
}

// best picks the most frequent variant; ties go to the shorter string, then
// the lexically smaller one.
func (a *lineAggregate) best() string {
	var (
		pick  string
		count int
	)
	for text, n := range a.variants {
		if count == 0 || n > count || (n == count && preferVariant(text, pick)) {
			pick, count = text, n
		}
	}
	return pick
}

func preferVariant(a, b string) bool {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// Aggregator folds a cluster's frames into one ordered block of lines.
type Aggregator struct {
	cfg Config
	log logrus.FieldLogger
}

func NewAggregator(cfg Config, log logrus.FieldLogger) *Aggregator {
	return &Aggregator{cfg: cfg, log: orDiscard(log)}
}

// Aggregate returns the slide text for frames: surviving lines joined by
// newlines, trimmed and truncated to the char limit.
func (a *Aggregator) Aggregate(frames []transcript.FrameObservation) string {
	text := strings.TrimSpace(strings.Join(a.Lines(frames), "\n"))
	return textnorm.Truncate(text, a.cfg.CharLimit)
}

// Lines is Aggregate before joining. Frames are taken in the order given.
func (a *Aggregator) Lines(frames []transcript.FrameObservation) []string {
	if len(frames) == 0 {
		return nil
	}

	aggs := make(map[string]*lineAggregate)
	for fi, f := range frames {
		for li, raw := range f.Lines {
			cleaned, ok := a.cfg.Rules.CleanLine(raw)
			if !ok {
				a.log.WithField("line", raw).Debug("rejected ocr line")
				continue
			}
			key := textnorm.NormalizedKey(cleaned)
			if key == "" {
				continue
			}
			agg, seen := aggs[key]
			if !seen {
				agg = &lineAggregate{key: key, variants: map[string]int{}, firstFrame: fi, firstLine: li}
				aggs[key] = agg
			}
			agg.total++
			agg.lineIndexSum += li
			agg.variants[cleaned]++
		}
	}

	keepAll := len(frames) <= a.cfg.SingletonFrames
	minApp := a.minAppearances(len(frames))

	survivors := make([]*lineAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if keepAll || agg.total >= minApp {
			survivors = append(survivors, agg)
			continue
		}
		a.log.WithFields(logrus.Fields{"line": agg.key, "seen": agg.total, "need": minApp}).Debug("dropped transient line")
	}

	sort.Slice(survivors, func(i, j int) bool {
		x, y := survivors[i], survivors[j]
		if x.firstFrame != y.firstFrame {
			return x.firstFrame < y.firstFrame
		}
		if ax, ay := x.avgLineIndex(), y.avgLineIndex(); ax != ay {
			return ax < ay
		}
		if x.firstLine != y.firstLine {
			return x.firstLine < y.firstLine
		}
		return x.key < y.key
	})

	lines := make([]string, 0, len(survivors))
	for _, agg := range survivors {
		lines = append(lines, agg.best())
	}
	lines = dedupContained(lines)

	if len(lines) == 0 {
		lines = a.fallback(frames)
	}
	return lines
}

// minAppearances is ceil(n*ratio), never below 1.
func (a *Aggregator) minAppearances(n int) int {
	// Epsilon absorbs products like 0.3*10 landing a hair above an integer.
	m := int(math.Ceil(float64(n)*a.cfg.MinAppearanceRatio - 1e-9))
	if m < 1 {
		return 1
	}
	return m
}

// fallback returns the cleaned, deduplicated lines of the most confident frame.
func (a *Aggregator) fallback(frames []transcript.FrameObservation) []string {
	best := 0
	for i, f := range frames {
		if f.Confidence > frames[best].Confidence {
			best = i
		}
	}
	var lines []string
	for _, raw := range frames[best].Lines {
		if cleaned, ok := a.cfg.Rules.CleanLine(raw); ok && textnorm.NormalizedKey(cleaned) != "" {
			lines = append(lines, cleaned)
		}
	}
	return dedupContained(lines)
}

// dedupContained keeps a line only if its key neither equals, is contained
// in, nor contains the key of any line kept before it.
func dedupContained(lines []string) []string {
	var (
		out  []string
		kept []string
	)
	for _, l := range lines {
		k := textnorm.NormalizedKey(l)
		dup := false
		for _, prev := range kept {
			if textnorm.KeysOverlap(k, prev) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, k)
		out = append(out, l)
	}
	return out
}
