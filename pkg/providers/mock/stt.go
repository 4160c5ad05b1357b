package mock

import (
	"context"
	"sync"
)

type STTConfig struct {
	Transcript string
	Err        error
}

// Transcriber is a canned STT for tests and local runs.
type Transcriber struct {
	cfg    STTConfig
	mu     sync.Mutex
	audios [][]byte
}

func NewTranscriber(cfg STTConfig) *Transcriber {
	if cfg.Transcript == "" && cfg.Err == nil {
		cfg.Transcript = "mock transcript"
	}
	return &Transcriber{cfg: cfg}
}

func (t *Transcriber) Name() string { return "mock_stt" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	t.mu.Lock()
	t.audios = append(t.audios, append([]byte(nil), audio...))
	t.mu.Unlock()
	if t.cfg.Err != nil {
		return "", t.cfg.Err
	}
	return t.cfg.Transcript, nil
}

// Received reports how many uploads Transcribe has seen.
func (t *Transcriber) Received() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.audios)
}
