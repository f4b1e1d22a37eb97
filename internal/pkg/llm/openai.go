package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider OpenAI 兼容接口（DeepSeek 等）
type OpenAIProvider struct {
	name     string
	model    string
	sampling Sampling
	client   *openai.Client
}

func NewOpenAIProvider(name, apiKey, baseURL, model string, sampling Sampling) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIProvider{
		name:     name,
		model:    model,
		sampling: sampling,
		client:   openai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(p.sampling.Temperature),
		MaxTokens:   p.sampling.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
