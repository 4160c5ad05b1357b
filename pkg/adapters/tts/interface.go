package tts

import "context"

// Synthesizer defines the contract for any TTS vendor implementation.
// The relay is agnostic to audio format and voice; whatever bytes come
// back are handed to the transport as-is.
type Synthesizer interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Synthesize converts reply text into audio bytes.
	Synthesize(ctx context.Context, text string) ([]byte, error)
	// ContentType reports the MIME type of the synthesized audio.
	ContentType() string
}
