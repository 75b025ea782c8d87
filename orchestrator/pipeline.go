package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/slidefuse/clients"
	cfg "github.com/maastricht-university/slidefuse/config"
	"github.com/maastricht-university/slidefuse/merge"
	"github.com/maastricht-university/slidefuse/refine"
	"github.com/maastricht-university/slidefuse/transcript"
)

type Pipeline struct {
	cfg    *cfg.Root
	http   *clients.HTTP
	log    logrus.FieldLogger
	merger *merge.Merger
	now    func() time.Time
}

func NewPipeline(c *cfg.Root, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		cfg:    c,
		http:   clients.NewHTTP(),
		log:    log.WithField("component", "orchestrator"),
		merger: merge.NewMerger(c.MergeConfig(), log),
		now:    time.Now,
	}
}

// Run collects both streams for videoPath from the OCR and ASR services,
// fuses them and persists the session. A failing collaborator contributes an
// empty stream; only local errors abort the run.
func (p *Pipeline) Run(ctx context.Context, videoPath string) (*Session, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}
	in := p.collect(ctx, videoPath)
	return p.finish(ctx, videoPath, in)
}

// RunBundle fuses a local bundle file and persists the session.
func (p *Pipeline) RunBundle(ctx context.Context, path string) (*Session, error) {
	in, err := LoadBundle(path)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, path, in)
}

// Process fuses in and, when a refine service is configured, refines the
// slides. Refinement failures keep the unrefined slides.
func (p *Pipeline) Process(ctx context.Context, in Streams) transcript.Result {
	res := p.merger.Fuse(in.Frames, in.Tokens)

	url := p.cfg.Services.Refine.URL
	if url == "" {
		return res
	}
	slides, err := refine.Apply(ctx, clients.Refiner{HTTP: p.http, URL: url}, res.Slides, p.cfg.Fusion.SlideCharLimit)
	switch {
	case errors.Is(err, refine.ErrRefinementMismatch):
		p.log.WithError(err).Warn("refiner answered out of step; keeping fused slides")
	case err != nil:
		p.log.WithError(err).Warn("refinement failed; keeping fused slides")
	default:
		p.log.WithField("slides", len(slides)).Debug("slides refined")
	}
	res.Slides = slides
	return res
}

func (p *Pipeline) finish(ctx context.Context, source string, in Streams) (*Session, error) {
	res := p.Process(ctx, in)

	sess, err := p.persist(source, in, res)
	if err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"session":      sess.ID,
		"slides":       len(res.Slides),
		"content_type": res.ContentType,
	}).Info("session written")

	if url := p.cfg.Services.Publish.URL; url != "" {
		out, err := p.http.Publish(ctx, url, clients.PublishReq{SessionID: sess.ID, Result: res})
		if err != nil {
			p.log.WithError(err).Warn("publish failed")
		} else {
			sess.PublishedURL = out.URL
			p.log.WithField("url", out.URL).Info("session published")
		}
	}
	return sess, nil
}

// collect runs OCR and ASR concurrently. Each goroutine delivers exactly once
// on its own buffered channel, so neither blocks if the other is slow.
func (p *Pipeline) collect(ctx context.Context, videoPath string) Streams {
	if n := p.cfg.Timeouts.CollectSeconds; n > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DurSeconds(n))
		defer cancel()
	}

	ocrCh := make(chan ocrResult, 1)
	asrCh := make(chan asrResult, 1)

	go func() {
		url := p.cfg.Services.OCR.URL
		if url == "" {
			ocrCh <- ocrResult{err: errors.New("no ocr service configured")}
			return
		}
		resp, err := p.http.OCR(ctx, url, videoPath, p.cfg.Sampling.IntervalSeconds)
		if err != nil {
			ocrCh <- ocrResult{err: err}
			return
		}
		ocrCh <- ocrResult{frames: resp.Observations()}
	}()
	go func() {
		url := p.cfg.Services.ASR.URL
		if url == "" {
			asrCh <- asrResult{err: errors.New("no asr service configured")}
			return
		}
		resp, err := p.http.ASR(ctx, url, videoPath)
		if err != nil {
			asrCh <- asrResult{err: err}
			return
		}
		asrCh <- asrResult{tokens: resp.Tokens()}
	}()

	o, a := <-ocrCh, <-asrCh
	if o.err != nil {
		p.log.WithError(o.err).Warn("ocr unavailable; continuing without frames")
	}
	if a.err != nil {
		p.log.WithError(a.err).Warn("asr unavailable; continuing without speech")
	}
	p.log.WithFields(logrus.Fields{"frames": len(o.frames), "tokens": len(a.tokens)}).Debug("streams collected")
	return Streams{Frames: o.frames, Tokens: a.tokens}
}
