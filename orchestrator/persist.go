package orchestrator

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/maastricht-university/slidefuse/export"
	"github.com/maastricht-university/slidefuse/transcript"
)

const (
	resultFile = "result.json"
	inputsFile = "inputs.json"
	slidesBase = "slides"
)

// mkSessionDir creates outputs/session_<ts>. A second run in the same second
// gets a random suffix instead of sharing the directory.
func mkSessionDir(outputsRoot string, now time.Time) (string, string, error) {
	if err := os.MkdirAll(outputsRoot, 0o755); err != nil {
		return "", "", err
	}
	sid := "session_" + now.Format("20060102-150405")
	dir := filepath.Join(outputsRoot, sid)
	err := os.Mkdir(dir, 0o755)
	if errors.Is(err, fs.ErrExist) {
		sid += "_" + uuid.NewString()[:8]
		dir = filepath.Join(outputsRoot, sid)
		err = os.Mkdir(dir, 0o755)
	}
	if err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// persist writes result.json, the raw inputs and every configured export.
func (p *Pipeline) persist(source string, in Streams, res transcript.Result) (*Session, error) {
	now := p.now()
	sid, outDir, err := mkSessionDir(p.cfg.Paths.Outputs, now)
	if err != nil {
		return nil, err
	}

	bundle := PersistBundle{
		SessionID:   sid,
		Source:      source,
		GeneratedAt: now.UTC(),
		FrameCount:  len(in.Frames),
		TokenCount:  len(in.Tokens),
		Result:      res,
	}
	if err = writeJSON(filepath.Join(outDir, resultFile), bundle); err != nil {
		return nil, err
	}
	if err = writeJSON(filepath.Join(outDir, inputsFile), transcript.Bundle{Frames: in.Frames, Tokens: in.Tokens}); err != nil {
		return nil, err
	}

	// result.json already carries the JSON rendering.
	var formats []string
	for _, f := range p.cfg.Export.Formats {
		if f != "json" {
			formats = append(formats, f)
		}
	}
	if len(formats) > 0 {
		if err = export.WriteAll(filepath.Join(outDir, slidesBase), &res, formats); err != nil {
			return nil, err
		}
	}

	return &Session{ID: sid, Dir: outDir, Result: res}, nil
}
