// Package merge combines OCR slides and speech segments into the final
// slide sequence, choosing a strategy from which streams carry content.
package merge

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/slidefuse/ocr"
	"github.com/maastricht-university/slidefuse/speech"
	"github.com/maastricht-university/slidefuse/textnorm"
	"github.com/maastricht-university/slidefuse/transcript"
)

// speechOnlyConfidence stands in when no OCR confidence exists.
const speechOnlyConfidence = 1.0

// Config bundles the stage configs.
type Config struct {
	OCR        ocr.Config
	GapSeconds float64
}

func DefaultConfig() Config {
	return Config{OCR: ocr.DefaultConfig(), GapSeconds: speech.DefaultGapSeconds}
}

// Merger runs the whole fusion. It holds no per-run state and is safe for
// concurrent use.
type Merger struct {
	cfg        Config
	log        logrus.FieldLogger
	segmenter  *speech.Segmenter
	clusterer  *ocr.Clusterer
	aggregator *ocr.Aggregator
}

func NewMerger(cfg Config, log logrus.FieldLogger) *Merger {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	log = log.WithField("component", "merge")
	return &Merger{
		cfg:        cfg,
		log:        log,
		segmenter:  speech.NewSegmenter(cfg.GapSeconds),
		clusterer:  ocr.NewClusterer(cfg.OCR, log),
		aggregator: ocr.NewAggregator(cfg.OCR, log),
	}
}

// Fuse turns both raw streams into a result. Either stream may be empty; the
// result always holds at least one slide.
func (m *Merger) Fuse(frames []transcript.FrameObservation, tokens []transcript.SpeechToken) transcript.Result {
	segments := m.segmenter.Segment(tokens)
	slides := m.OCRSlides(frames)
	res := m.Merge(slides, segments, frames)
	m.log.WithFields(logrus.Fields{
		"frames":       len(frames),
		"tokens":       len(tokens),
		"segments":     len(segments),
		"slides":       len(res.Slides),
		"content_type": res.ContentType,
	}).Info("fused transcript")
	return res
}

// OCRSlides clusters frames and maps every cluster with text to one visual
// slide, numbered in timestamp order.
func (m *Merger) OCRSlides(frames []transcript.FrameObservation) []transcript.Slide {
	var slides []transcript.Slide
	for _, c := range m.clusterer.Cluster(frames) {
		text := m.aggregator.Aggregate(c.Frames)
		if text == "" {
			continue
		}
		slides = append(slides, transcript.NewSlide(text, transcript.SourceVisual,
			transcript.Seconds(c.Start()), transcript.Seconds(c.End()), m.cfg.OCR.CharLimit))
	}
	transcript.Renumber(slides)
	return slides
}

// Merge applies the content-type decision table. frames are the raw OCR
// observations, used for on-screen annotation and average confidence.
func (m *Merger) Merge(ocrSlides []transcript.Slide, segments []transcript.SpeechSegment, frames []transcript.FrameObservation) transcript.Result {
	hasOCR, hasSpeech := len(ocrSlides) > 0, len(segments) > 0

	var res transcript.Result
	switch {
	case hasOCR && hasSpeech:
		res.ContentType = transcript.ContentVoiceoverPlusText
		res.Slides = m.annotated(segments, frames)
	case hasOCR:
		res.ContentType = transcript.ContentTextOnly
		res.Slides = append([]transcript.Slide(nil), ocrSlides...)
	case hasSpeech:
		res.ContentType = transcript.ContentVoiceoverOnly
		for _, seg := range segments {
			res.Slides = append(res.Slides, m.segmentSlide(seg, seg.Text, transcript.SourceSpeech))
		}
	default:
		res.ContentType = transcript.ContentEmpty
		res.Slides = []transcript.Slide{transcript.NewSlide("", transcript.SourceManual, nil, nil, m.cfg.OCR.CharLimit)}
	}
	transcript.Renumber(res.Slides)
	res.AverageConfidence = averageConfidence(frames, hasSpeech)
	return res
}

// annotated builds one merged slide per segment, appending on-screen text
// seen during the segment unless the speaker already said it.
func (m *Merger) annotated(segments []transcript.SpeechSegment, frames []transcript.FrameObservation) []transcript.Slide {
	slides := make([]transcript.Slide, 0, len(segments))
	for _, seg := range segments {
		var window []transcript.FrameObservation
		for _, f := range frames {
			if f.Timestamp >= seg.Start && f.Timestamp <= seg.End {
				window = append(window, f)
			}
		}

		text := seg.Text
		onScreen := strings.Join(m.aggregator.Lines(window), " | ")
		if onScreen != "" && !strings.Contains(textnorm.NormalizedKey(seg.Text), textnorm.NormalizedKey(onScreen)) {
			text += "\n[On-screen: " + onScreen + "]"
		}
		slides = append(slides, m.segmentSlide(seg, text, transcript.SourceMerged))
	}
	return slides
}

func (m *Merger) segmentSlide(seg transcript.SpeechSegment, text string, src transcript.Source) transcript.Slide {
	return transcript.NewSlide(text, src, transcript.Seconds(seg.Start), transcript.Seconds(seg.End), m.cfg.OCR.CharLimit)
}

func averageConfidence(frames []transcript.FrameObservation, hasSpeech bool) float64 {
	if len(frames) == 0 {
		if hasSpeech {
			return speechOnlyConfidence
		}
		return 0
	}
	sum := 0.0
	for _, f := range frames {
		sum += f.Confidence
	}
	return sum / float64(len(frames))
}

// Fuse runs a default-configured Merger.
func Fuse(frames []transcript.FrameObservation, tokens []transcript.SpeechToken) transcript.Result {
	return NewMerger(DefaultConfig(), nil).Fuse(frames, tokens)
}
