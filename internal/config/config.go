package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for health-assistant
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Sessions  SessionsConfig
	Analysis  AnalysisConfig
	Voice     VoiceConfig
	Assistant AssistantConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port int
}

// CatalogConfig holds the optional catalog overlay directory
type CatalogConfig struct {
	Dir string
}

// SessionsConfig holds assessment session lifetime settings
type SessionsConfig struct {
	TTL             time.Duration // idle time before a session is reaped
	CleanupInterval time.Duration
}

// AnalysisConfig holds the symptom analysis service settings
type AnalysisConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// VoiceConfig holds the speech-to-text service settings.
// An empty endpoint disables voice input.
type VoiceConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// Enabled reports whether a transcription service is configured
func (v VoiceConfig) Enabled() bool {
	return v.Endpoint != ""
}

// AssistantConfig holds the chat widget settings
type AssistantConfig struct {
	Enabled bool
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	Origins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Catalog: CatalogConfig{
			Dir: getEnv("CATALOG_DIR", ""),
		},
		Sessions: SessionsConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", time.Minute),
		},
		Analysis: AnalysisConfig{
			Endpoint: getEnv("ANALYSIS_ENDPOINT", "http://localhost:8000/analyze"),
			APIKey:   getEnv("ANALYSIS_API_KEY", ""),
			Timeout:  getEnvAsDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		},
		Voice: VoiceConfig{
			Endpoint: getEnv("VOICE_ENDPOINT", ""),
			Timeout:  getEnvAsDuration("VOICE_TIMEOUT", 60*time.Second),
		},
		Assistant: AssistantConfig{
			Enabled: getEnvAsBool("ASSISTANT_ENABLED", true),
		},
		CORS: CORSConfig{
			Origins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Sessions.CleanupInterval <= 0 {
		return fmt.Errorf("session cleanup interval must be positive")
	}

	if c.Analysis.Endpoint == "" {
		return fmt.Errorf("analysis endpoint is required")
	}
	if err := checkURL(c.Analysis.Endpoint); err != nil {
		return fmt.Errorf("invalid analysis endpoint: %w", err)
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis timeout must be positive")
	}

	if c.Voice.Enabled() {
		if err := checkURL(c.Voice.Endpoint); err != nil {
			return fmt.Errorf("invalid voice endpoint: %w", err)
		}
	}

	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
