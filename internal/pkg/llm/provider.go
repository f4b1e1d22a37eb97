package llm

import (
	"fmt"

	"github.com/qs3c/idea_go_server/config"
)

const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindGemini    = "gemini"
)

var defaultModels = map[string]string{
	KindOpenAI:    "deepseek-chat",
	KindAnthropic: "claude-3-7-sonnet-latest",
	KindGemini:    "gemini-2.0-flash",
}

// Sampling 采样参数，主备模型共用
type Sampling struct {
	Temperature float64
	MaxTokens   int
}

// NewProvider 按配置的 kind 创建模型客户端
func NewProvider(cfg *config.ProviderConfig, sampling Sampling) (Provider, error) {
	name := cfg.Name
	if name == "" {
		name = cfg.Kind
	}

	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Kind]
	}

	switch cfg.Kind {
	case KindOpenAI:
		return NewOpenAIProvider(name, cfg.APIKey, cfg.BaseURL, model, sampling), nil
	case KindAnthropic:
		return NewAnthropicProvider(name, cfg.APIKey, cfg.BaseURL, model, sampling), nil
	case KindGemini:
		return NewGeminiProvider(name, cfg.APIKey, cfg.BaseURL, model, sampling)
	default:
		return nil, fmt.Errorf("unsupported provider kind %q", cfg.Kind)
	}
}
