package stt

import "context"

// Transcriber defines the contract for any STT vendor implementation
// over prerecorded audio (one upload, one transcript).
type Transcriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe converts audio bytes into text. mimeType hints the
	// container format ("audio/wav", "audio/ogg", ...).
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
