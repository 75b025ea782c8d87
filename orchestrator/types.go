package orchestrator

import (
	"time"

	"github.com/maastricht-university/slidefuse/transcript"
)

// Streams holds the raw inputs of one fusion.
type Streams struct {
	Frames []transcript.FrameObservation
	Tokens []transcript.SpeechToken
}

type ocrResult struct {
	frames []transcript.FrameObservation
	err    error
}

type asrResult struct {
	tokens []transcript.SpeechToken
	err    error
}

// Session describes one persisted run.
type Session struct {
	ID           string
	Dir          string
	Result       transcript.Result
	PublishedURL string
}

// PersistBundle is the on-disk form of a session, written as result.json.
type PersistBundle struct {
	SessionID   string            `json:"session_id"`
	Source      string            `json:"source"`
	GeneratedAt time.Time         `json:"generated_at"`
	FrameCount  int               `json:"frame_count"`
	TokenCount  int               `json:"token_count"`
	Result      transcript.Result `json:"result"`
}
