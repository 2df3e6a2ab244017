// Package config loads environment-driven configuration for the daemon
// and the agent CLI.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNoCredentials is returned when neither provider credential set is
// present. The agent refuses to start rather than degrade.
var ErrNoCredentials = errors.New(
	"no API credentials configured: set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY, or OPENAI_API_KEY")

// OpenAIConfig holds direct OpenAI API settings.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// AzureConfig holds Azure OpenAI deployment settings.
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

// Config is the full environment-derived configuration.
type Config struct {
	APIBaseURL string // ticketing API base URL, e.g. http://localhost:8000/v1
	APIKey     string // shared secret for the X-API-Key header
	Addr       string // listen address for the daemon
	DBPath     string // SQLite path; empty selects the in-memory store
	LogLevel   string // raw LOG_LEVEL value

	OpenAI OpenAIConfig
	Azure  AzureConfig
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first; existing environment variables win.
func Load() *Config {
	godotenv.Load()

	return &Config{
		APIBaseURL: envOr("API_BASE_URL", "http://localhost:8000/v1"),
		APIKey:     os.Getenv("API_KEY"),
		Addr:       envOr("TICKETD_ADDR", "localhost:8000"),
		DBPath:     os.Getenv("TICKETD_DB"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  envOr("OPENAI_MODEL", "gpt-4"),
		},
		Azure: AzureConfig{
			Endpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
			APIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
			Deployment: envOr("AZURE_OPENAI_DEPLOYMENT", "gpt-5-mini"),
			APIVersion: envOr("AZURE_API_VERSION", "2024-12-01-preview"),
		},
	}
}

// HasAzure reports whether the Azure credential pair is present.
func (c *Config) HasAzure() bool {
	return c.Azure.Endpoint != "" && c.Azure.APIKey != ""
}

// HasOpenAI reports whether a direct OpenAI key is present.
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// ValidateCredentials fails when no provider can be constructed.
func (c *Config) ValidateCredentials() error {
	if !c.HasAzure() && !c.HasOpenAI() {
		return ErrNoCredentials
	}
	return nil
}

// Level parses LOG_LEVEL, returning def when unset or unrecognized.
// WARNING is accepted as an alias for WARN.
func (c *Config) Level(def slog.Level) slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return def
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
