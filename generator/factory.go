package generator

import (
	"context"
	"fmt"
	"log"

	"dialogue_ai/config"
	"dialogue_ai/dialogue"
	"dialogue_ai/prompts"
)

// Backend is a reply generator that holds resources.
type Backend interface {
	Reply(ctx context.Context, req prompts.Request) (string, error)
	Close() error
}

// New builds the backend selected by cfg.Backend. The "none" backend
// returns a nil Backend so every reply is a stock reply.
func New(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendGemini:
		g, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		log.Printf("[Generator] Using Gemini model %s", cfg.GeminiModel)
		return g, nil
	case config.BackendOllama:
		o := NewOllama(OllamaConfig{BaseURL: cfg.OllamaURL, Model: cfg.OllamaModel, Timeout: cfg.ReplyTimeout})
		if err := o.Ping(ctx); err != nil {
			log.Printf("[Generator] Ollama at %s not reachable yet: %v", cfg.OllamaURL, err)
		}
		log.Printf("[Generator] Using Ollama model %s", o.Model())
		return o, nil
	case config.BackendNone:
		log.Println("[Generator] No generator configured, characters use stock replies")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown generator backend %q", dialogue.ErrInvalidConfiguration, cfg.Backend)
	}
}
