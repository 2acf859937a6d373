// Package config loads process-wide configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults match a local Ollama setup.
const (
	DefaultAddr        = ":8080"
	DefaultProvider    = "ollama"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultModel       = "llama2:latest"
	DefaultTemperature = 0.3
	DefaultAllowOrigin = "http://localhost:3000"

	DefaultRequestTimeout   = 120 * time.Second
	DefaultAttemptTimeout   = 60 * time.Second
	DefaultMaxAttempts      = 3
	DefaultMaxInflight      = 2
	DefaultMaxCodeBytes     = 32768
	DefaultMalformedRetries = 1
)

// Config holds all service configuration, immutable after Load.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// Provider selects the generation backend: ollama, openai, anthropic,
	// or google.
	Provider string

	// OllamaHost is the base URL of the Ollama server.
	OllamaHost string

	// Model is the model name passed to the provider.
	Model string

	// Temperature is the sampling temperature for generation.
	Temperature float64

	// RequestTimeout bounds one whole review request.
	RequestTimeout time.Duration

	// AttemptTimeout bounds a single generation attempt.
	AttemptTimeout time.Duration

	// MaxAttempts is the generation client's total attempt budget.
	MaxAttempts int

	// MaxInflight bounds concurrent generation calls across requests.
	MaxInflight int64

	// MaxCodeBytes truncates larger review input.
	MaxCodeBytes int

	// MalformedRetries is how many times a stage re-generates after its
	// output is rejected.
	MalformedRetries int

	// AllowOrigin is the CORS origin permitted to call the API.
	AllowOrigin string

	// API keys for hosted providers.
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string

	// OpenAIBaseURL overrides the OpenAI endpoint, e.g. an Ollama /v1
	// compatibility URL.
	OpenAIBaseURL string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:             envString("REVIEWFLOW_ADDR", DefaultAddr),
		Provider:         envString("REVIEWFLOW_PROVIDER", DefaultProvider),
		OllamaHost:       envString("OLLAMA_HOST", DefaultOllamaHost),
		Model:            envString("OLLAMA_MODEL", DefaultModel),
		AllowOrigin:      envString("REVIEWFLOW_ALLOW_ORIGIN", DefaultAllowOrigin),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
		OpenAIBaseURL:    os.Getenv("REVIEWFLOW_OPENAI_BASE_URL"),
		MalformedRetries: DefaultMalformedRetries,
	}

	var err error
	if cfg.Temperature, err = envFloat("OLLAMA_TEMPERATURE", DefaultTemperature); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = envDuration("REVIEWFLOW_REQUEST_TIMEOUT", DefaultRequestTimeout); err != nil {
		return nil, err
	}
	if cfg.AttemptTimeout, err = envDuration("REVIEWFLOW_ATTEMPT_TIMEOUT", DefaultAttemptTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = envInt("REVIEWFLOW_MAX_ATTEMPTS", DefaultMaxAttempts); err != nil {
		return nil, err
	}
	maxInflight, err := envInt("REVIEWFLOW_MAX_INFLIGHT", DefaultMaxInflight)
	if err != nil {
		return nil, err
	}
	cfg.MaxInflight = int64(maxInflight)
	if cfg.MaxCodeBytes, err = envInt("REVIEWFLOW_MAX_CODE_BYTES", DefaultMaxCodeBytes); err != nil {
		return nil, err
	}
	if cfg.MalformedRetries, err = envInt("REVIEWFLOW_MALFORMED_RETRIES", DefaultMalformedRetries); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "ollama", "openai", "anthropic", "google":
	default:
		return nil, fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
