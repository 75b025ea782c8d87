// Package ocr turns per-frame text observations into slide text: frames are
// split into clusters of unchanged on-screen content, and each cluster is
// voted down to one block of lines.
package ocr

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/slidefuse/textnorm"
	"github.com/maastricht-university/slidefuse/transcript"
)

// Config holds the tunables for clustering and aggregation.
type Config struct {
	SimilarityThreshold float64 // frame-to-frame Jaccard that keeps a cluster open
	MinAppearanceRatio  float64 // share of cluster frames a line must appear in
	SingletonFrames     int     // clusters this small keep every line
	CharLimit           int
	Rules               textnorm.Rules
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.62,
		MinAppearanceRatio:  0.30,
		SingletonFrames:     2,
		CharLimit:           transcript.DefaultSlideCharLimit,
		Rules:               textnorm.DefaultRules(),
	}
}

// Cluster is a run of consecutive frames showing the same content.
type Cluster struct {
	Frames []transcript.FrameObservation
}

func (c Cluster) Start() float64 { return c.Frames[0].Timestamp }
func (c Cluster) End() float64   { return c.Frames[len(c.Frames)-1].Timestamp }

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Clusterer partitions frames on slide changes.
type Clusterer struct {
	cfg Config
	log logrus.FieldLogger
}

func NewClusterer(cfg Config, log logrus.FieldLogger) *Clusterer {
	return &Clusterer{cfg: cfg, log: orDiscard(log)}
}

// Cluster sorts frames by timestamp and splits them wherever a frame's line
// set drops below the similarity threshold against the frame before it.
func (c *Clusterer) Cluster(frames []transcript.FrameObservation) []Cluster {
	if len(frames) == 0 {
		return nil
	}
	sorted := make([]transcript.FrameObservation, len(frames))
	copy(sorted, frames)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	var out []Cluster
	open := []transcript.FrameObservation{sorted[0]}
	prevKeys := sorted[0].KeysWith(c.cfg.Rules)

	for _, f := range sorted[1:] {
		keys := f.KeysWith(c.cfg.Rules)
		sim := Jaccard(prevKeys, keys)
		if sim >= c.cfg.SimilarityThreshold {
			open = append(open, f)
		} else {
			c.log.WithFields(logrus.Fields{"at": f.Timestamp, "similarity": sim}).Debug("slide change")
			out = append(out, Cluster{Frames: open})
			open = []transcript.FrameObservation{f}
		}
		prevKeys = keys
	}
	out = append(out, Cluster{Frames: open})
	return out
}

func orDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	d := logrus.New()
	d.SetOutput(io.Discard)
	return d
}
