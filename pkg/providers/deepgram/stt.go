package deepgram

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/kringlelabs/kringle/pkg/errorsx"
	"github.com/kringlelabs/kringle/pkg/logging"
	"github.com/kringlelabs/kringle/pkg/resilience"

	listenapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

type Config struct {
	APIKey     string
	Model      string
	Language   string
	MaxRetries int
	BackoffMS  int
}

// Transcriber runs prerecorded transcription through the Deepgram REST
// API: one audio upload in, one transcript out. Transient HTTP failures
// are retried inside the adapter; the orchestrator above it never
// retries.
type Transcriber struct {
	cfg    Config
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func New(cfg Config) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Transcriber{
		cfg:    cfg,
		retry:  resilience.NewRetryPolicy(cfg.MaxRetries, time.Duration(cfg.BackoffMS)*time.Millisecond),
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_stt"),
	}
}

func (t *Transcriber) Name() string { return "deepgram_stt" }

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if t.cfg.APIKey == "" {
		return "", errorsx.New("missing deepgram api key", errorsx.ReasonTranscribe)
	}
	if len(audio) == 0 {
		return "", errorsx.New("empty audio payload", errorsx.ReasonTranscribe)
	}

	c := client.NewREST(t.cfg.APIKey, &interfaces.ClientOptions{})
	dg := listenapi.New(c)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       t.cfg.Model,
		Language:    t.cfg.Language,
		SmartFormat: true,
		Punctuate:   true,
	}

	transcript := ""
	err := t.retry.Do(ctx, func() error {
		res, innerErr := dg.FromStream(ctx, bytes.NewReader(audio), options)
		if innerErr != nil {
			return innerErr
		}
		if res == nil || len(res.Results.Channels) == 0 ||
			len(res.Results.Channels[0].Alternatives) == 0 {
			return errorsx.New("no transcript in response", errorsx.ReasonTranscribe)
		}
		transcript = res.Results.Channels[0].Alternatives[0].Transcript
		return nil
	})
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribe)
	}

	t.logger.Debug("transcribed upload",
		slog.Int("audio_bytes", len(audio)),
		slog.String("mime_type", mimeType),
		slog.Int("transcript_len", len(transcript)))
	return transcript, nil
}
