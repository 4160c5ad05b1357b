// Package kringle is the composition root: it loads configuration,
// builds providers from the registry, and owns the fact store and the
// turn orchestrator for the life of the process.
package kringle

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kringlelabs/kringle/pkg/adapters/stt"
	"github.com/kringlelabs/kringle/pkg/adapters/tts"
	"github.com/kringlelabs/kringle/pkg/facts"
	"github.com/kringlelabs/kringle/pkg/logging"
	"github.com/kringlelabs/kringle/pkg/metrics"
	"github.com/kringlelabs/kringle/pkg/redact"
	"github.com/kringlelabs/kringle/pkg/server"
	"github.com/kringlelabs/kringle/pkg/turn"
)

type Engine struct {
	cfg         Config
	store       *facts.Store
	orch        *turn.Orchestrator
	synthesizer tts.Synthesizer
	transcriber stt.Transcriber
	server      *server.Server
	log         *slog.Logger
	observer    *metrics.AsyncObserver
	metricsFile *os.File
}

type EngineOptions struct {
	Config    Config
	Providers *ProviderRegistry
	// Store lets tests inject an isolated fact store; nil builds a
	// fresh one.
	Store  *facts.Store
	Logger *slog.Logger
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	cfg := opts.Config

	log := opts.Logger
	if log == nil {
		log = logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
		slog.SetDefault(log)
	}

	providers := opts.Providers
	if providers == nil {
		providers = NewProviderRegistry()
		RegisterDefaults(providers)
	}

	model, err := providers.BuildLLM(cfg.Vendors.LLM.Provider, cfg)
	if err != nil {
		return nil, err
	}
	synthesizer, err := providers.BuildTTS(cfg.Vendors.TTS.Provider, cfg)
	if err != nil {
		return nil, err
	}
	transcriber, err := providers.BuildSTT(cfg.Vendors.STT.Provider, cfg)
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		store = facts.NewStore()
	}
	p := cfg.BuildPersona()
	orch := turn.NewOrchestrator(store, model, p, log)

	redact.SetEnabled(cfg.LogRedactPII)

	e := &Engine{cfg: cfg, store: store, orch: orch, log: log}
	if cfg.Metrics.Enabled {
		sink := os.Stderr
		if cfg.Metrics.Path != "" {
			f, err := os.OpenFile(cfg.Metrics.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open metrics sink: %w", err)
			}
			sink = f
			e.metricsFile = f
		}
		sampled := metrics.NewSamplingObserver(metrics.NewJSONLObserver(sink), cfg.Metrics.SampleRate)
		e.observer = metrics.NewAsyncObserver(sampled, cfg.Metrics.Buffer)
		orch.SetObserver(e.observer)
	}

	log.Info("kringle_init",
		slog.String("environment", cfg.Environment),
		slog.String("persona", p.ID),
		slog.String("llm_provider", cfg.Vendors.LLM.Provider),
		slog.String("tts_provider", cfg.Vendors.TTS.Provider),
		slog.String("stt_provider", cfg.Vendors.STT.Provider),
	)

	srv := server.New(server.Config{
		Addr:             cfg.Server.Addr,
		SpeakReplies:     cfg.Server.SpeakReplies,
		TwilioSMSEnabled: cfg.Twilio.SMSEnabled,
		TwilioAuthToken:  cfg.Twilio.AuthToken,
		TwilioPublicURL:  cfg.Twilio.PublicURL,
		TwilioSMSPath:    cfg.Twilio.SMSPath,
	}, orch, synthesizer, transcriber, log)

	e.synthesizer = synthesizer
	e.transcriber = transcriber
	e.server = srv
	return e, nil
}

// Orchestrator exposes the turn orchestrator for embedding callers.
func (e *Engine) Orchestrator() *turn.Orchestrator { return e.orch }

// Store exposes the fact store for diagnostics.
func (e *Engine) Store() *facts.Store { return e.store }

// Run serves until ctx is cancelled, then drains the metrics pipeline.
func (e *Engine) Run(ctx context.Context) error {
	defer e.closeMetrics()
	return e.server.ListenAndServe(ctx)
}

func (e *Engine) closeMetrics() {
	if e.observer != nil {
		e.observer.Close()
	}
	if e.metricsFile != nil {
		_ = e.metricsFile.Close()
	}
}
