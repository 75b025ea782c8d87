package clients

import (
	"context"

	"github.com/maastricht-university/slidefuse/transcript"
)

// --- Publish (/slides) ---
type PublishReq struct {
	SessionID string            `json:"session_id"`
	Result    transcript.Result `json:"result"`
}
type PublishResp struct{ Status, URL string }

func (h *HTTP) Publish(ctx context.Context, url string, req PublishReq) (*PublishResp, error) {
	var out PublishResp
	if err := h.postJSON(ctx, "publish", url+"/slides", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
