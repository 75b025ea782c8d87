package clients

import (
	"context"
	"strings"

	"github.com/maastricht-university/slidefuse/transcript"
)

// --- ASR (/transcribe) ---
type Word struct {
	Word           string   `json:"word"`
	PunctuatedWord string   `json:"punctuated_word"`
	Start          float64  `json:"start"`
	End            float64  `json:"end"`
	Duration       *float64 `json:"duration,omitempty"`
}
type ASRResp struct {
	Words    []Word `json:"words"`
	Language string `json:"language"`
}

// Tokens maps recognizer words to speech tokens, preferring the punctuated
// form since sentence splitting keys off trailing punctuation.
func (r *ASRResp) Tokens() []transcript.SpeechToken {
	out := make([]transcript.SpeechToken, 0, len(r.Words))
	for _, w := range r.Words {
		text := w.PunctuatedWord
		if strings.TrimSpace(text) == "" {
			text = w.Word
		}
		dur := w.End - w.Start
		if w.Duration != nil {
			dur = *w.Duration
		}
		if dur < 0 {
			dur = 0
		}
		out = append(out, transcript.SpeechToken{Text: text, Start: w.Start, Duration: dur})
	}
	return out
}

func (h *HTTP) ASR(ctx context.Context, url, videoPath string) (*ASRResp, error) {
	var out ASRResp
	if err := h.upload(ctx, "asr", url+"/transcribe", videoPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
