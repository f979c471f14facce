package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ANSWER_BASE_URL", "ANSWER_TIMEOUT", "CHAT_DEBOUNCE",
		"CHAT_MAX_LENGTH", "CHAT_WELCOME_TIMEOUT", "CHAT_MARKDOWN", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_PRETTY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Answer.BaseURL)
	assert.Zero(t, cfg.Answer.Timeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Chat.Debounce)
	assert.Equal(t, 200, cfg.Chat.MaxMessageLength)
	assert.Equal(t, 3*time.Second, cfg.Chat.WelcomeTimeout)
	assert.True(t, cfg.Chat.Markdown)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9090")
	t.Setenv("ANSWER_BASE_URL", "https://answers.example.com/api/")
	t.Setenv("ANSWER_TIMEOUT", "15s")
	t.Setenv("CHAT_DEBOUNCE", "150")
	t.Setenv("CHAT_MAX_LENGTH", "80")
	t.Setenv("CHAT_MARKDOWN", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "https://answers.example.com/api", cfg.Answer.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Answer.Timeout)
	assert.Equal(t, 150*time.Millisecond, cfg.Chat.Debounce)
	assert.Equal(t, 80, cfg.Chat.MaxMessageLength)
	assert.False(t, cfg.Chat.Markdown)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"ANSWER_BASE_URL": "ftp://answers.example.com",
		"ANSWER_TIMEOUT":  "soon",
		"CHAT_MAX_LENGTH": "0",
		"CHAT_MARKDOWN":   "maybe",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadServerConfigPortOnly(t *testing.T) {
	t.Setenv("PORT", "8081")

	server, err := loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8081", server.Addr)
}
