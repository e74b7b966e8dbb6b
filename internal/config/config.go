// Package config handles loading and validating the lovtrans configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider defaults, shared with the provider package.
const (
	DefaultProviderBaseURL   = "https://zenmux.ai/api"
	DefaultProviderModel     = "openai/gpt-4o-mini"
	DefaultProviderMaxTokens = 1000
)

// Config is the root configuration for lovtrans.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Settings   SettingsConfig   `mapstructure:"settings"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	STT        STTConfig        `mapstructure:"stt"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Enabled      bool  `mapstructure:"enabled"`
	Port         int   `mapstructure:"port"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	SecureCookie bool  `mapstructure:"secure_cookie"`
}

// ProviderConfig configures the chat-completions translation backend.
type ProviderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
	DetectFallback string        `mapstructure:"detect_fallback"` // ISO-639-1 code returned when detection fails
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SettingsConfig selects where language settings are persisted.
type SettingsConfig struct {
	Backend string      `mapstructure:"backend"` // "memory", "file" or "redis"
	Dir     string      `mapstructure:"dir"`     // file backend directory
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the Redis settings backend connection.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig configures the per-client HTTP rate limiter.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// STTConfig configures the speech-to-text backend.
type STTConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Type      string        `mapstructure:"type"`     // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	Endpoint  string        `mapstructure:"endpoint"` // transcription URL
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	VADFilter bool          `mapstructure:"vad_filter"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Backend string      `mapstructure:"backend"` // "piper"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// Endpoints maps language codes to dedicated Wyoming instances; Endpoint is
// used for every language without one.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // language code -> Piper voice model name
}

// VoiceConfig configures local microphone capture and speaker playback for
// the CLI.
type VoiceConfig struct {
	RecordCommand string        `mapstructure:"record_command"`
	RecordSeconds int           `mapstructure:"record_seconds"`
	PlayCommand   string        `mapstructure:"play_command"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`   // debug, info, warn, error
	Format  string `mapstructure:"format"`  // json, text
	Backend string `mapstructure:"backend"` // slog, zap
	Output  string `mapstructure:"output"`  // stdout, stderr
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./lovtrans.yaml, ./configs/lovtrans.yaml, /etc/lovtrans/lovtrans.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.max_body_bytes", 1<<20)
	v.SetDefault("transports.http.secure_cookie", false)
	v.SetDefault("provider.base_url", DefaultProviderBaseURL)
	v.SetDefault("provider.api_key", "${ZENMUX_API_KEY}")
	v.SetDefault("provider.model", DefaultProviderModel)
	v.SetDefault("provider.max_tokens", DefaultProviderMaxTokens)
	v.SetDefault("provider.temperature", 0.3)
	v.SetDefault("provider.detect_fallback", "en")
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("settings.backend", "memory")
	v.SetDefault("settings.dir", "./data/settings")
	v.SetDefault("settings.redis.addr", "localhost:6379")
	v.SetDefault("settings.redis.password", "")
	v.SetDefault("settings.redis.db", 0)
	v.SetDefault("settings.redis.ttl", 30*24*time.Hour)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 2.0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("stt.enabled", false)
	v.SetDefault("stt.type", "openai")
	v.SetDefault("stt.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("stt.api_key", "")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("stt.vad_filter", false)
	v.SetDefault("stt.timeout", 60*time.Second)
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("voice.record_command", "arecord")
	v.SetDefault("voice.record_seconds", 5)
	v.SetDefault("voice.play_command", "aplay")
	v.SetDefault("voice.timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.backend", "slog")
	v.SetDefault("logging.output", "stdout")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lovtrans")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lovtrans")
	}

	// Environment variables: LOVTRANS_PROVIDER_MODEL, LOVTRANS_SETTINGS_BACKEND, etc.
	v.SetEnvPrefix("LOVTRANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional: env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${ZENMUX_API_KEY}")
	cfg.Provider.APIKey = resolveEnvRef(cfg.Provider.APIKey)
	cfg.STT.APIKey = resolveEnvRef(cfg.STT.APIKey)
	cfg.Settings.Redis.Password = resolveEnvRef(cfg.Settings.Redis.Password)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Settings.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("settings.backend: unknown backend %q", c.Settings.Backend)
	}
	switch c.Logging.Backend {
	case "slog", "zap":
	default:
		return fmt.Errorf("logging.backend: unknown backend %q", c.Logging.Backend)
	}
	if c.STT.Enabled && c.STT.Type != "openai" && c.STT.Type != "asr" {
		return fmt.Errorf("stt.type: unknown type %q", c.STT.Type)
	}
	if c.TTS.Enabled && c.TTS.Backend != "piper" {
		return fmt.Errorf("tts.backend: unknown backend %q", c.TTS.Backend)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("ratelimit: requests_per_second and burst must be positive")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var
// value. A reference to an unset variable resolves to "".
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}
