package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/maastricht-university/slidefuse/clients"
	"github.com/maastricht-university/slidefuse/transcript"
)

// BundleSuffix marks files the inbox picks up.
const BundleSuffix = ".bundle.json"

func IsBundle(name string) bool { return strings.HasSuffix(name, BundleSuffix) }

// LoadBundle reads a {"frames":[...],"tokens":[...]} file.
func LoadBundle(path string) (Streams, error) {
	var b transcript.Bundle
	if err := readJSON(path, &b); err != nil {
		return Streams{}, err
	}
	return Streams{Frames: b.Frames, Tokens: b.Tokens}, nil
}

// LoadFrames accepts either a bare array of observations or a saved OCR
// service answer ({"frames":[{"timestamp":..,"lines":[{"text":..}]}]}).
func LoadFrames(path string) ([]transcript.FrameObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isArray(data) {
		var out []transcript.FrameObservation
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("frames %s: %w", path, err)
		}
		return out, nil
	}
	var resp clients.OCRResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("frames %s: %w", path, err)
	}
	return resp.Observations(), nil
}

// LoadTokens accepts either a bare array of tokens or a saved ASR service
// answer ({"words":[...]}).
func LoadTokens(path string) ([]transcript.SpeechToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isArray(data) {
		var out []transcript.SpeechToken
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("tokens %s: %w", path, err)
		}
		return out, nil
	}
	var resp clients.ASRResp
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("tokens %s: %w", path, err)
	}
	return resp.Tokens(), nil
}

func isArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
