package classifier

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGateway is the concrete Gateway backed by the Gemini API.
type GeminiGateway struct {
	client *genai.Client
	model  string
}

// NewGeminiGateway creates a gateway using the given API key and model
// name. An empty apiKey falls back to the GEMINI_API_KEY/GOOGLE_API_KEY
// environment variables handled by the genai SDK.
func NewGeminiGateway(ctx context.Context, apiKey, model string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGateway: create genai client: %w", err)
	}
	return &GeminiGateway{client: client, model: model}, nil
}

// Complete implements Gateway with a single GenerateContent call.
// Transport failures and empty responses surface as ErrUnavailable so
// call sites can apply their fail-safe defaults.
func (g *GeminiGateway) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: userPrompt},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: systemInstruction},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", ErrUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrUnavailable)
	}

	return text, nil
}

var _ Gateway = (*GeminiGateway)(nil)
