package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider Google Gemini 模型
type GeminiProvider struct {
	name     string
	model    string
	sampling Sampling
	client   *genai.Client
}

func NewGeminiProvider(name, apiKey, baseURL, model string, sampling Sampling) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		name:     name,
		model:    model,
		sampling: sampling,
		client:   client,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return p.name
}

func (p *GeminiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(p.sampling.Temperature)),
		MaxOutputTokens:   int32(p.sampling.MaxTokens),
	})
	if err != nil {
		return "", err
	}

	text := result.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
