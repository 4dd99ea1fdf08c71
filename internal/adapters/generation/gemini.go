package generation

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini generates text with the Gemini API through the genai SDK.
type Gemini struct {
	client   *genai.Client
	settings Settings
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, apiKey string, s Settings) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	s = s.withDefaults(defaultGeminiModel)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, settings: s}, nil
}

// GenerateText returns the concatenated text parts of the first candidate.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.settings.Model, genai.Text(prompt), g.config())
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func (g *Gemini) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.settings.Temperature)),
		MaxOutputTokens: int32(g.settings.MaxTokens), //nolint:gosec // bounded by config validation
	}
}
