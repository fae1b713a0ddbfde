// Package generator produces in-character replies from a language model.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"dialogue_ai/prompts"
)

// ErrNoContent is returned when the model answers without any text, which
// usually means the candidate was blocked.
var ErrNoContent = errors.New("no content generated")

// Gemini answers through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini opens a Gemini client for the named model.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompts.SystemPrompt)}}
	model.SetTemperature(0.9)
	model.SetMaxOutputTokens(200)
	return &Gemini{client: client, model: model}, nil
}

// Reply sends the scene prompt and returns the model's text.
func (g *Gemini) Reply(ctx context.Context, req prompts.Request) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompts.Build(req)))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return textOf(resp)
}

// Close releases the client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func textOf(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoContent
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", ErrNoContent
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrNoContent
	}
	return out, nil
}
