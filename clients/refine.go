package clients

import (
	"context"
)

// --- Refine (/refine) ---
type RefineReq struct {
	Texts []string `json:"texts"`
}
type RefineResp struct {
	Texts []string `json:"texts"`
}

func (h *HTTP) Refine(ctx context.Context, url string, texts []string) (*RefineResp, error) {
	var out RefineResp
	if err := h.postJSON(ctx, "refine", url+"/refine", RefineReq{Texts: texts}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refiner binds a refine service URL so the client satisfies refine.Refiner.
type Refiner struct {
	HTTP *HTTP
	URL  string
}

func (r Refiner) Refine(ctx context.Context, texts []string) ([]string, error) {
	resp, err := r.HTTP.Refine(ctx, r.URL, texts)
	if err != nil {
		return nil, err
	}
	return resp.Texts, nil
}
