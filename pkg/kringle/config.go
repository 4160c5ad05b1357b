package kringle

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kringlelabs/kringle/pkg/configutil"
	"github.com/kringlelabs/kringle/pkg/persona"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	// LogRedactPII scrubs phone numbers and email addresses from
	// utterance text before it reaches logs.
	LogRedactPII bool          `mapstructure:"log_redact_pii"`
	Server       ServerConfig  `mapstructure:"server"`
	Persona      PersonaConfig `mapstructure:"persona"`
	Vendors      VendorsConfig `mapstructure:"vendors"`
	Twilio       TwilioConfig  `mapstructure:"twilio"`
	Metrics      MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path is the JSONL sink; empty writes to stderr.
	Path       string  `mapstructure:"path"`
	SampleRate float64 `mapstructure:"sample_rate"`
	Buffer     int     `mapstructure:"buffer"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// SpeakReplies controls whether text-turn responses also carry
	// synthesized audio by default.
	SpeakReplies bool `mapstructure:"speak_replies"`
}

type PersonaConfig struct {
	ID               string `mapstructure:"id"`
	DisplayName      string `mapstructure:"display_name"`
	Greeting         string `mapstructure:"greeting"`
	FallbackTemplate string `mapstructure:"fallback_template"`
	LearnNames       *bool  `mapstructure:"learn_names"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	LLM VendorConfig `mapstructure:"llm"`
	TTS VendorConfig `mapstructure:"tts"`
	STT VendorConfig `mapstructure:"stt"`
}

type TwilioConfig struct {
	SMSEnabled bool   `mapstructure:"sms_enabled"`
	AuthToken  string `mapstructure:"auth_token"`
	// PublicURL is the externally visible base URL Twilio signs
	// requests against (scheme + host, no path).
	PublicURL string `mapstructure:"public_url"`
	SMSPath   string `mapstructure:"sms_path"`
}

// LoadConfig reads a config file and environment overrides. Every key
// can also come from the environment with the KRINGLE_ prefix, dots and
// dashes replaced by underscores.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("KRINGLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.speak_replies", false)
	v.SetDefault("persona.id", "santa")
	v.SetDefault("persona.learn_names", true)
	v.SetDefault("vendors.llm.provider", "mock")
	v.SetDefault("vendors.tts.provider", "mock")
	v.SetDefault("vendors.stt.provider", "mock")
	v.SetDefault("twilio.sms_enabled", false)
	v.SetDefault("twilio.sms_path", "/webhooks/twilio/sms")
	v.SetDefault("log_redact_pii", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.sample_rate", 1.0)
	v.SetDefault("metrics.buffer", 256)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Twilio.SMSEnabled {
		if err := configutil.RequireString(cfg.Twilio.AuthToken, "twilio.auth_token"); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// BuildPersona starts from the stock persona and applies config
// overrides.
func (c Config) BuildPersona() persona.Persona {
	p := persona.Santa()
	if c.Persona.ID != "" {
		p.ID = c.Persona.ID
	}
	p.DisplayName = configutil.StringValue(c.Persona.DisplayName, p.DisplayName)
	p.Greeting = configutil.StringValue(c.Persona.Greeting, p.Greeting)
	p.FallbackTemplate = configutil.StringValue(c.Persona.FallbackTemplate, p.FallbackTemplate)
	p.LearnsNames = configutil.BoolValue(c.Persona.LearnNames, p.LearnsNames)
	return p
}
