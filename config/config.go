// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"dialogue_ai/dialogue"
	"dialogue_ai/story"
)

const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
	BackendNone   = "none"

	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// Config holds every runtime setting.
type Config struct {
	Addr string `env:"ADDR" envDefault:"0.0.0.0:9779"`

	Backend      string        `env:"GENERATOR_BACKEND" envDefault:"gemini"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OllamaURL    string        `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel  string        `env:"OLLAMA_MODEL" envDefault:"phi3:mini"`
	ReplyTimeout time.Duration `env:"REPLY_TIMEOUT" envDefault:"20s"`

	ExchangeLimit   int   `env:"EXCHANGE_LIMIT" envDefault:"5"`
	OptionsPerTurn  int   `env:"OPTIONS_PER_TURN" envDefault:"4"`
	LocationChoices int   `env:"LOCATION_CHOICES" envDefault:"4"`
	HistoryWindow   int   `env:"HISTORY_WINDOW" envDefault:"6"`
	Seed            int64 `env:"SEED" envDefault:"0"`

	JournalDriver string `env:"JOURNAL_DRIVER" envDefault:"sqlite"`
	JournalDSN    string `env:"JOURNAL_DSN" envDefault:"dialogue_journal.db"`

	CharactersFile string `env:"CHARACTERS_FILE"`
	LocationsFile  string `env:"LOCATIONS_FILE"`
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		log.Println("[Config] No .env file, using process environment")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.JournalDriver = strings.ToLower(strings.TrimSpace(cfg.JournalDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on loaded content.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for the gemini backend", dialogue.ErrInvalidConfiguration)
		}
	case BackendOllama, BackendNone:
	default:
		return fmt.Errorf("%w: unknown GENERATOR_BACKEND %q (supported: %s, %s, %s)",
			dialogue.ErrInvalidConfiguration, c.Backend, BackendGemini, BackendOllama, BackendNone)
	}
	switch c.JournalDriver {
	case JournalSQLite, JournalPostgres:
		if strings.TrimSpace(c.JournalDSN) == "" {
			return fmt.Errorf("%w: JOURNAL_DSN is required for the %s journal", dialogue.ErrInvalidConfiguration, c.JournalDriver)
		}
	case JournalNone:
	default:
		return fmt.Errorf("%w: unknown JOURNAL_DRIVER %q", dialogue.ErrInvalidConfiguration, c.JournalDriver)
	}
	if c.ExchangeLimit <= 0 {
		return fmt.Errorf("%w: EXCHANGE_LIMIT must be > 0", dialogue.ErrInvalidConfiguration)
	}
	return nil
}

// Story converts the settings into progression rules.
func (c Config) Story() story.Config {
	return story.Config{
		ExchangeLimit:   c.ExchangeLimit,
		OptionsPerTurn:  c.OptionsPerTurn,
		LocationChoices: c.LocationChoices,
		HistoryWindow:   c.HistoryWindow,
		ReplyTimeout:    c.ReplyTimeout,
		Seed:            c.Seed,
	}
}
