package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the limits the service enforces at its boundary.
const (
	DefaultMaxArchiveBytes = 50 * 1024 * 1024
	DefaultMaxCandidates   = 50
	DefaultOpenAIModel     = "gpt-4o-2024-08-06"
)

// Config holds all server and pipeline configuration.
type Config struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Verbose bool   `yaml:"verbose"`

	CORSOrigins []string `yaml:"cors_origins"`

	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	OpenAIModel       string        `yaml:"openai_model"`
	OpenAIMaxTokens   int64         `yaml:"openai_max_tokens"`
	OpenAITemperature float64       `yaml:"openai_temperature"`
	OracleTimeout     time.Duration `yaml:"oracle_timeout"`

	MaxArchiveBytes int64   `yaml:"max_archive_bytes"`
	MaxCandidates   int     `yaml:"max_candidates"`
	MinConfidence   float64 `yaml:"min_confidence"`

	ExecTimeout time.Duration `yaml:"exec_timeout"`

	// ExcludeMimePrefixes marks response content types that indicate static
	// assets rather than API traffic.
	ExcludeMimePrefixes []string `yaml:"exclude_mime_prefixes"`

	// SensitiveHeaders is matched as a case-insensitive substring against
	// header names when masking synthesized commands. Kept as data so new
	// credential conventions can be added without touching render logic.
	SensitiveHeaders []string `yaml:"sensitive_headers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:              "127.0.0.1",
		Port:              8000,
		CORSOrigins:       []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		OpenAIModel:       DefaultOpenAIModel,
		OpenAIMaxTokens:   4096,
		OpenAITemperature: 0.1,
		OracleTimeout:     60 * time.Second,
		MaxArchiveBytes:   DefaultMaxArchiveBytes,
		MaxCandidates:     DefaultMaxCandidates,
		MinConfidence:     0.3,
		ExecTimeout:       30 * time.Second,
		ExcludeMimePrefixes: []string{
			"text/html", "text/css", "application/javascript", "text/javascript",
			"image/", "font/", "audio/", "video/",
		},
		SensitiveHeaders: []string{
			"authorization", "cookie", "x-api-key", "x-auth-token",
			"x-access-token", "token", "api-key", "secret", "session",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// HARCURL_* environment overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HARCURL_HOST"); v != "" {
		c.Host = v
	}
	if v := envInt("HARCURL_PORT"); v != nil {
		c.Port = int(*v)
	}
	if envBool("HARCURL_VERBOSE") {
		c.Verbose = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("HARCURL_OPENAI_MODEL"); v != "" {
		c.OpenAIModel = v
	}
	if v := envInt("HARCURL_OPENAI_MAX_TOKENS"); v != nil {
		c.OpenAIMaxTokens = *v
	}
	if v := envInt("HARCURL_MAX_ARCHIVE_BYTES"); v != nil {
		c.MaxArchiveBytes = *v
	}
	if v := envInt("HARCURL_MAX_CANDIDATES"); v != nil {
		c.MaxCandidates = int(*v)
	}
	if v := os.Getenv("HARCURL_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("HARCURL_SENSITIVE_HEADERS"); v != "" {
		c.SensitiveHeaders = splitList(v)
	}
}

// Validate checks boundary limits for sanity.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxArchiveBytes <= 0 {
		return fmt.Errorf("max_archive_bytes must be positive, got %d", c.MaxArchiveBytes)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max_candidates must be positive, got %d", c.MaxCandidates)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string) *int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
