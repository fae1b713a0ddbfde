package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialogue_ai/dialogue"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", "none")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9779", cfg.Addr)
	assert.Equal(t, 5, cfg.ExchangeLimit)
	assert.Equal(t, 4, cfg.OptionsPerTurn)
	assert.Equal(t, 4, cfg.LocationChoices)
	assert.Equal(t, 6, cfg.HistoryWindow)
	assert.Equal(t, 20*time.Second, cfg.ReplyTimeout)
	assert.Equal(t, JournalSQLite, cfg.JournalDriver)

	sc := cfg.Story()
	assert.Equal(t, 5, sc.ExchangeLimit)
	assert.Equal(t, 20*time.Second, sc.ReplyTimeout)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("GENERATOR_BACKEND", " Ollama ")
	t.Setenv("EXCHANGE_LIMIT", "3")
	t.Setenv("REPLY_TIMEOUT", "5s")
	t.Setenv("JOURNAL_DRIVER", "none")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, BackendOllama, cfg.Backend)
	assert.Equal(t, 3, cfg.ExchangeLimit)
	assert.Equal(t, 5*time.Second, cfg.ReplyTimeout)
	assert.Equal(t, JournalNone, cfg.JournalDriver)
}

func TestParseError(t *testing.T) {
	t.Setenv("EXCHANGE_LIMIT", "five")

	_, err := Parse()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse env:"), err.Error())
}

func TestValidate(t *testing.T) {
	base := Config{Backend: BackendNone, JournalDriver: JournalNone, ExchangeLimit: 5}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gemini without key", func(c *Config) { c.Backend = BackendGemini }},
		{"unknown backend", func(c *Config) { c.Backend = "gpt" }},
		{"sqlite without dsn", func(c *Config) { c.JournalDriver = JournalSQLite }},
		{"unknown journal", func(c *Config) { c.JournalDriver = "mongo" }},
		{"zero exchange limit", func(c *Config) { c.ExchangeLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			assert.True(t, errors.Is(err, dialogue.ErrInvalidConfiguration), "got %v", err)
		})
	}
}
