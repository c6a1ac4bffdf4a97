// Package config loads application configuration with multi-source priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables
//  2. Config file (~/.bhujal/config.yaml)
//  3. Default values
//
// Configuration is read once at startup and treated as immutable for the
// lifetime of the process. Validation is fail-fast: a bad value aborts
// startup rather than surfacing mid-conversation.
//
// Error handling uses sentinel errors checked with errors.Is() and
// wrapped with fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the completion provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTimeout indicates the completion timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid completion timeout")

	// ErrInvalidTopK indicates the corpus top-k is out of range.
	ErrInvalidTopK = errors.New("invalid corpus top-k")

	// ErrInvalidLanguage indicates the language is not supported.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidDBPath indicates no usable database location is configured.
	ErrInvalidDBPath = errors.New("invalid database path")

	// ErrInvalidRateLimit indicates a rate limit value is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// Completion provider identifiers used in Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	// ProviderNone disables the hosted provider entirely; every answer
	// comes from the deterministic composer.
	ProviderNone = "none"
)

// Language identifiers used in Config.Language.
const (
	LanguageAuto    = "auto"
	LanguageEnglish = "en"
	LanguageHindi   = "hi"
)

// Config stores application configuration.
// SECURITY: DatabaseURL may embed credentials and is masked in MarshalJSON().
type Config struct {
	// Completion provider and model configuration
	Provider     string  `mapstructure:"provider" json:"provider"`         // "openai" (default), "gemini", "none"
	ModelName    string  `mapstructure:"model_name" json:"model_name"`     // e.g. "gpt-4o-mini", "gemini-2.5-flash"
	Temperature  float32 `mapstructure:"temperature" json:"temperature"`   // 0 keeps phrasing stable across runs
	MaxTokens    int     `mapstructure:"max_tokens" json:"max_tokens"`     //
	TimeoutSec   int     `mapstructure:"timeout_sec" json:"timeout_sec"`   // per completion call
	FallbackOnly bool    `mapstructure:"fallback_only" json:"fallback_only"`

	// Answer language: "auto" detects per query, "en"/"hi" pin it.
	Language string `mapstructure:"language" json:"language"`

	// Storage configuration. DatabaseURL selects PostgreSQL when set;
	// otherwise DBPath selects the embedded SQLite database.
	DBPath      string `mapstructure:"db_path" json:"db_path"`
	DatabaseURL string `mapstructure:"database_url" json:"database_url"` // SENSITIVE: masked in MarshalJSON

	// Corpus configuration. Empty CorpusPath uses the embedded corpus.
	CorpusPath string `mapstructure:"corpus_path" json:"corpus_path"`
	TopK       int    `mapstructure:"top_k" json:"top_k"`

	// Completion call pacing (proactive, before quota errors occur)
	CompletionRPM int `mapstructure:"completion_rpm" json:"completion_rpm"`

	// Serve mode
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For behind a reverse proxy
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`   // per-client burst for the serve limiter

	// Observability (tracing is disabled when OTLPEndpoint is empty)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
	Environment  string `mapstructure:"environment" json:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".bhujal")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	// Completion defaults. Temperature 0 so repeated questions get
	// repeatable phrasing; the numbers are deterministic regardless.
	viper.SetDefault("provider", ProviderOpenAI)
	viper.SetDefault("model_name", "gpt-4o-mini")
	viper.SetDefault("temperature", 0.0)
	viper.SetDefault("max_tokens", 1024)
	viper.SetDefault("timeout_sec", 30)
	viper.SetDefault("fallback_only", false)
	viper.SetDefault("completion_rpm", 30)

	viper.SetDefault("language", LanguageAuto)

	// Storage defaults
	viper.SetDefault("db_path", filepath.Join(configDir, "bhujal.db"))

	// Corpus defaults
	viper.SetDefault("top_k", 3)

	// Serve defaults
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 20)

	// Observability defaults
	viper.SetDefault("service_name", "bhujal")
	viper.SetDefault("environment", "dev")
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "BHUJAL_PROVIDER")
	mustBind("model_name", "BHUJAL_MODEL")
	mustBind("temperature", "BHUJAL_TEMPERATURE")
	mustBind("timeout_sec", "BHUJAL_TIMEOUT_SEC")
	mustBind("fallback_only", "BHUJAL_FALLBACK_ONLY")
	mustBind("language", "BHUJAL_LANGUAGE")
	mustBind("db_path", "BHUJAL_DB_PATH")
	mustBind("database_url", "DATABASE_URL")
	mustBind("corpus_path", "BHUJAL_CORPUS_PATH")
	mustBind("top_k", "BHUJAL_TOP_K")
	mustBind("cors_origins", "BHUJAL_CORS_ORIGINS")
	mustBind("trust_proxy", "BHUJAL_TRUST_PROXY")
	mustBind("otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	mustBind("service_name", "BHUJAL_SERVICE_NAME")
	mustBind("environment", "BHUJAL_ENVIRONMENT")

	// NOTE: OPENAI_API_KEY and GEMINI_API_KEY are read directly by the
	// provider SDKs, not via Viper. A missing key is not a startup error:
	// the composer probes availability and degrades to the deterministic
	// formatter per turn.
}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	validProviders := []string{ProviderOpenAI, ProviderGemini, ProviderNone}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not one of %v", ErrInvalidProvider, c.Provider, validProviders)
	}

	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 32768 {
		return fmt.Errorf("%w: must be between 1 and 32,768, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.TimeoutSec < 1 || c.TimeoutSec > 600 {
		return fmt.Errorf("%w: must be between 1 and 600 seconds, got %d", ErrInvalidTimeout, c.TimeoutSec)
	}

	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidTopK, c.TopK)
	}

	validLanguages := []string{LanguageAuto, LanguageEnglish, LanguageHindi}
	if !slices.Contains(validLanguages, c.Language) {
		return fmt.Errorf("%w: %q is not one of %v", ErrInvalidLanguage, c.Language, validLanguages)
	}

	if c.DatabaseURL == "" && c.DBPath == "" {
		return fmt.Errorf("%w: set db_path or DATABASE_URL", ErrInvalidDBPath)
	}

	if c.CompletionRPM < 1 || c.CompletionRPM > 6000 {
		return fmt.Errorf("%w: completion_rpm must be between 1 and 6000, got %d", ErrInvalidRateLimit, c.CompletionRPM)
	}

	if c.RateBurst < 1 || c.RateBurst > 10000 {
		return fmt.Errorf("%w: rate_burst must be between 1 and 10000, got %d", ErrInvalidRateLimit, c.RateBurst)
	}

	return nil
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked so the output never contains a substring of the input.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
// DatabaseURL may embed a password in its userinfo.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.DatabaseURL = maskSecret(a.DatabaseURL)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
