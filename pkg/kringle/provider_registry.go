package kringle

import (
	"fmt"
	"strings"
	"time"

	"github.com/kringlelabs/kringle/pkg/adapters/stt"
	"github.com/kringlelabs/kringle/pkg/adapters/tts"
	"github.com/kringlelabs/kringle/pkg/configutil"
	"github.com/kringlelabs/kringle/pkg/llm"
	"github.com/kringlelabs/kringle/pkg/providers/deepgram"
	"github.com/kringlelabs/kringle/pkg/providers/elevenlabs"
	"github.com/kringlelabs/kringle/pkg/providers/mock"
	"github.com/kringlelabs/kringle/pkg/providers/openai"
	"github.com/kringlelabs/kringle/pkg/resilience"
)

type LLMFactory func(cfg Config) (llm.ChatModel, error)
type TTSFactory func(cfg Config) (tts.Synthesizer, error)
type STTFactory func(cfg Config) (stt.Transcriber, error)

// ProviderRegistry maps vendor names from config to constructor
// functions. Mocks register alongside real vendors so a config flip is
// all it takes to run offline.
type ProviderRegistry struct {
	llm map[string]LLMFactory
	tts map[string]TTSFactory
	stt map[string]STTFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		llm: make(map[string]LLMFactory),
		tts: make(map[string]TTSFactory),
		stt: make(map[string]STTFactory),
	}
}

func (r *ProviderRegistry) RegisterLLM(name string, factory LLMFactory) {
	r.llm[normalizeProvider(name)] = factory
}

func (r *ProviderRegistry) RegisterTTS(name string, factory TTSFactory) {
	r.tts[normalizeProvider(name)] = factory
}

func (r *ProviderRegistry) RegisterSTT(name string, factory STTFactory) {
	r.stt[normalizeProvider(name)] = factory
}

func (r *ProviderRegistry) BuildLLM(provider string, cfg Config) (llm.ChatModel, error) {
	fn := r.llm[normalizeProvider(provider)]
	if fn == nil {
		return nil, fmt.Errorf("llm provider not registered: %s", provider)
	}
	return fn(cfg)
}

func (r *ProviderRegistry) BuildTTS(provider string, cfg Config) (tts.Synthesizer, error) {
	fn := r.tts[normalizeProvider(provider)]
	if fn == nil {
		return nil, fmt.Errorf("tts provider not registered: %s", provider)
	}
	return fn(cfg)
}

func (r *ProviderRegistry) BuildSTT(provider string, cfg Config) (stt.Transcriber, error) {
	fn := r.stt[normalizeProvider(provider)]
	if fn == nil {
		return nil, fmt.Errorf("stt provider not registered: %s", provider)
	}
	return fn(cfg)
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type openAISettings struct {
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	BaseURL           string `mapstructure:"base_url"`
	UseCircuitBreaker *bool  `mapstructure:"use_circuit_breaker"`
	CircuitThreshold  int    `mapstructure:"circuit_threshold"`
	CircuitCooldownMS int    `mapstructure:"circuit_cooldown_ms"`
}

type elevenlabsSettings struct {
	APIKey       string `mapstructure:"api_key"`
	VoiceID      string `mapstructure:"voice_id"`
	ModelID      string `mapstructure:"model_id"`
	OutputFormat string `mapstructure:"output_format"`
}

type deepgramSettings struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Language   string `mapstructure:"language"`
	MaxRetries int    `mapstructure:"max_retries"`
	BackoffMS  int    `mapstructure:"backoff_ms"`
}

type mockLLMSettings struct {
	ResponseText string `mapstructure:"response_text"`
}

type mockSTTSettings struct {
	Transcript string `mapstructure:"transcript"`
}

// RegisterDefaults wires the built-in providers.
func RegisterDefaults(r *ProviderRegistry) {
	r.RegisterLLM("openai", func(cfg Config) (llm.ChatModel, error) {
		var settings openAISettings
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.APIKey, "vendors.llm.settings.api_key"); err != nil {
			return nil, err
		}
		if settings.Model == "" {
			settings.Model = "gpt-4o-mini"
		}
		adapter := openai.NewAdapter(settings.APIKey, settings.Model)
		if settings.BaseURL != "" {
			adapter.BaseURL = settings.BaseURL
		}
		if configutil.BoolValue(settings.UseCircuitBreaker, false) {
			breaker := resilience.NewCircuitBreaker(settings.CircuitThreshold,
				time.Duration(settings.CircuitCooldownMS)*time.Millisecond)
			return llm.NewCircuitBreakerModel(adapter, breaker), nil
		}
		return adapter, nil
	})

	r.RegisterTTS("elevenlabs", func(cfg Config) (tts.Synthesizer, error) {
		var settings elevenlabsSettings
		if err := configutil.DecodeSettings(cfg.Vendors.TTS.Settings, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.APIKey, "vendors.tts.settings.api_key"); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.VoiceID, "vendors.tts.settings.voice_id"); err != nil {
			return nil, err
		}
		return elevenlabs.New(elevenlabs.Config{
			APIKey:       settings.APIKey,
			VoiceID:      settings.VoiceID,
			ModelID:      settings.ModelID,
			OutputFormat: settings.OutputFormat,
		}), nil
	})

	r.RegisterSTT("deepgram", func(cfg Config) (stt.Transcriber, error) {
		var settings deepgramSettings
		if err := configutil.DecodeSettings(cfg.Vendors.STT.Settings, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.APIKey, "vendors.stt.settings.api_key"); err != nil {
			return nil, err
		}
		return deepgram.New(deepgram.Config{
			APIKey:     settings.APIKey,
			Model:      settings.Model,
			Language:   settings.Language,
			MaxRetries: settings.MaxRetries,
			BackoffMS:  settings.BackoffMS,
		}), nil
	})

	r.RegisterLLM("mock", func(cfg Config) (llm.ChatModel, error) {
		var settings mockLLMSettings
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &settings); err != nil {
			return nil, err
		}
		return mock.NewChatModel(mock.LLMConfig{ResponseText: settings.ResponseText}), nil
	})
	r.RegisterTTS("mock", func(cfg Config) (tts.Synthesizer, error) {
		return mock.NewSynthesizer(mock.TTSConfig{}), nil
	})
	r.RegisterSTT("mock", func(cfg Config) (stt.Transcriber, error) {
		var settings mockSTTSettings
		if err := configutil.DecodeSettings(cfg.Vendors.STT.Settings, &settings); err != nil {
			return nil, err
		}
		return mock.NewTranscriber(mock.STTConfig{Transcript: settings.Transcript}), nil
	})
}
