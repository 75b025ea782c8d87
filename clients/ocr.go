package clients

import (
	"context"
	"strconv"

	"github.com/maastricht-university/slidefuse/transcript"
)

// --- OCR (/recognize) ---
type OCRLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}
type OCRFrame struct {
	Timestamp float64   `json:"timestamp"`
	Lines     []OCRLine `json:"lines"`
}
type OCRResp struct {
	Frames []OCRFrame `json:"frames"`
}

// Observations drops frames without lines and scores each kept frame by the
// mean of its line confidences.
func (r *OCRResp) Observations() []transcript.FrameObservation {
	out := make([]transcript.FrameObservation, 0, len(r.Frames))
	for _, f := range r.Frames {
		if len(f.Lines) == 0 {
			continue
		}
		obs := transcript.FrameObservation{Timestamp: f.Timestamp, Lines: make([]string, 0, len(f.Lines))}
		sum := 0.0
		for _, l := range f.Lines {
			obs.Lines = append(obs.Lines, l.Text)
			sum += l.Confidence
		}
		obs.Confidence = sum / float64(len(f.Lines))
		out = append(out, obs)
	}
	return out
}

func (h *HTTP) OCR(ctx context.Context, url, videoPath string, intervalSec float64) (*OCRResp, error) {
	fields := map[string]string{"interval": strconv.FormatFloat(intervalSec, 'f', -1, 64)}
	var out OCRResp
	if err := h.upload(ctx, "ocr", url+"/recognize", videoPath, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
