package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-4-vision-preview", cfg.DescribeModel)
	assert.Equal(t, "dall-e-3", cfg.DescribeImageModel)
	assert.Equal(t, 300, cfg.DescribeMaxTokens)
	assert.Equal(t, 60*time.Second, cfg.RetryInterval)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 600, cfg.CaptureWidth)
	assert.Equal(t, 400, cfg.CaptureHeight)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 30*time.Minute, cfg.RunTTL)
	assert.Equal(t, DefaultRetryConfig(), cfg.RetryConfig())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MOODCAM_VISION_API_KEY", "vision-key")
	t.Setenv("MOODCAM_OPENAI_API_KEY", "sk-test")
	t.Setenv("MOODCAM_RETRY_INTERVAL", "5s")
	t.Setenv("MOODCAM_MAX_RETRIES", "0")
	t.Setenv("MOODCAM_REQUESTS_PER_MINUTE", "50")
	t.Setenv("MOODCAM_CAPTURE_MIRROR", "true")
	t.Setenv("MOODCAM_AVATAR_TEMPLATE", "pixel art of a {label} robot")
	t.Setenv("MOODCAM_LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "vision-key", cfg.VisionAPIKey)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.True(t, cfg.CaptureMirror)
	assert.Equal(t, "pixel art of a {label} robot", cfg.AvatarTemplate)
	assert.Equal(t, RetryConfig{Interval: 5 * time.Second, MaxRetries: 0, RequestsPerMinute: 50}, cfg.RetryConfig())
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoadConfigBadValue(t *testing.T) {
	t.Setenv("MOODCAM_RETRY_INTERVAL", "soon")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RetryInterval: time.Second,
			MaxRetries:    5,
			CaptureWidth:  600,
			CaptureHeight: 400,
			LogFormat:     "text",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"zero interval", func(c *Config) { c.RetryInterval = 0 }, "retry interval"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max retries"},
		{"negative pacing", func(c *Config) { c.RequestsPerMinute = -3 }, "requests per minute"},
		{"empty box", func(c *Config) { c.CaptureHeight = 0 }, "capture box"},
		{"negative run timeout", func(c *Config) { c.RunTimeout = -time.Second }, "run timeout"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, `unknown log format "xml"`},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMissingCredentials(t *testing.T) {
	c := &Config{}
	assert.Equal(t, []string{
		"MOODCAM_VISION_API_KEY or MOODCAM_VISION_CREDENTIALS_FILE",
		"MOODCAM_OPENAI_API_KEY",
	}, c.MissingCredentials())

	c.VisionCredentialsFile = "/etc/moodcam/sa.json"
	assert.Equal(t, []string{"MOODCAM_OPENAI_API_KEY"}, c.MissingCredentials())
}
