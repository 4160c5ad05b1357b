package mock

import (
	"context"
	"sync"
)

type TTSConfig struct {
	Audio       []byte
	ContentType string
	Err         error
}

// Synthesizer is a canned TTS for tests and local runs.
type Synthesizer struct {
	cfg   TTSConfig
	mu    sync.Mutex
	texts []string
}

func NewSynthesizer(cfg TTSConfig) *Synthesizer {
	if len(cfg.Audio) == 0 && cfg.Err == nil {
		cfg.Audio = []byte("mock audio")
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "audio/wav"
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "mock_tts" }

func (s *Synthesizer) ContentType() string { return s.cfg.ContentType }

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()
	if s.cfg.Err != nil {
		return nil, s.cfg.Err
	}
	return append([]byte(nil), s.cfg.Audio...), nil
}

// Texts returns every text Synthesize has seen.
func (s *Synthesizer) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}
