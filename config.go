package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "MOODCAM_"

// Config holds every recognized option. Values come from MOODCAM_* environment
// variables and may be overridden by command-line flags.
type Config struct {
	// Face analysis
	VisionEndpoint        string `env:"VISION_ENDPOINT"`
	VisionAPIKey          string `env:"VISION_API_KEY"`
	VisionCredentialsFile string `env:"VISION_CREDENTIALS_FILE"`

	// Image generation and description
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	ImageModel         string `env:"IMAGE_MODEL"`
	DescribeModel      string `env:"DESCRIBE_MODEL" envDefault:"gpt-4-vision-preview"`
	DescribeImageModel string `env:"DESCRIBE_IMAGE_MODEL" envDefault:"dall-e-3"`
	DescribeMaxTokens  int    `env:"DESCRIBE_MAX_TOKENS" envDefault:"300"`
	AvatarTemplate     string `env:"AVATAR_TEMPLATE"`

	// Rate limiting and timeouts
	RetryInterval     time.Duration `env:"RETRY_INTERVAL" envDefault:"60s"`
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"5"`
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE" envDefault:"0"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"120s"`
	RunTimeout        time.Duration `env:"RUN_TIMEOUT" envDefault:"0s"`

	// Capture
	CaptureWidth  int  `env:"CAPTURE_WIDTH" envDefault:"600"`
	CaptureHeight int  `env:"CAPTURE_HEIGHT" envDefault:"400"`
	CaptureMirror bool `env:"CAPTURE_MIRROR" envDefault:"false"`

	// Server
	ListenAddr string        `env:"LISTEN_ADDR" envDefault:":8080"`
	RunTTL     time.Duration `env:"RUN_TTL" envDefault:"30m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig parses the environment into a Config
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks option ranges
func (c *Config) Validate() error {
	var problems []string
	if c.RetryInterval <= 0 {
		problems = append(problems, "retry interval must be positive")
	}
	if c.MaxRetries < 0 {
		problems = append(problems, "max retries must not be negative (0 retries forever)")
	}
	if c.RequestsPerMinute < 0 {
		problems = append(problems, "requests per minute must not be negative")
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		problems = append(problems, "capture box must be positive")
	}
	if c.RunTimeout < 0 {
		problems = append(problems, "run timeout must not be negative")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RetryConfig extracts the rate-limit settings
func (c *Config) RetryConfig() RetryConfig {
	return RetryConfig{
		Interval:          c.RetryInterval,
		MaxRetries:        c.MaxRetries,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}

// MissingCredentials lists credentials that are still empty placeholders
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.VisionAPIKey == "" && c.VisionCredentialsFile == "" {
		missing = append(missing, envPrefix+"VISION_API_KEY or "+envPrefix+"VISION_CREDENTIALS_FILE")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, envPrefix+"OPENAI_API_KEY")
	}
	return missing
}
