package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qs3c/idea_go_server/config"
)

const DefaultTimeout = 30 * time.Second

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeProviderFailure
	outcomeParseFailure
)

type attempt struct {
	outcome  outcome
	provider string
	ideas    []ContentIdea
	err      error
}

// Pipeline 主模型调用一次，调用失败时备用模型调用一次
type Pipeline struct {
	primary   Provider
	secondary Provider
	timeout   time.Duration
}

// NewPipeline secondary 可以为 nil，此时不回退
func NewPipeline(primary, secondary Provider, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
	}
}

// NewPipelineFromConfig 根据配置创建主备模型
func NewPipelineFromConfig(cfg *config.GenerationConfig) (*Pipeline, error) {
	sampling := Sampling{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	primary, err := NewProvider(&cfg.Primary, sampling)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}

	var secondary Provider
	if cfg.Secondary.Kind != "" {
		secondary, err = NewProvider(&cfg.Secondary, sampling)
		if err != nil {
			return nil, fmt.Errorf("secondary provider: %w", err)
		}
	}

	return NewPipeline(primary, secondary, cfg.Timeout), nil
}

// Generate 生成内容创意
//
// 主模型回复无法解析时直接返回 ErrResponseParse，不再调用备用模型。
// 两个模型都调用失败时返回 ErrGenerationFailed。
func (p *Pipeline) Generate(ctx context.Context, system, user string) ([]ContentIdea, error) {
	first := p.attempt(ctx, p.primary, system, user)
	switch first.outcome {
	case outcomeSuccess:
		return first.ideas, nil
	case outcomeParseFailure:
		return nil, first.err
	}

	if ctx.Err() != nil {
		// 客户端已断开，不再调用备用模型
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ctx.Err())
	}
	if p.secondary == nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, first.err)
	}

	log.Warn().Err(first.err).Str("primary", first.provider).Str("secondary", p.secondary.Name()).
		Msg("primary provider failed, falling back")

	second := p.attempt(ctx, p.secondary, system, user)
	switch second.outcome {
	case outcomeSuccess:
		return second.ideas, nil
	case outcomeParseFailure:
		return nil, second.err
	default:
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, second.err)
	}
}

func (p *Pipeline) attempt(ctx context.Context, provider Provider, system, user string) attempt {
	name := provider.Name()

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	reply, err := provider.Complete(callCtx, system, user)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		log.Error().Err(err).Str("provider", name).Dur("elapsed", time.Since(start)).Msg("provider call failed")
		return attempt{
			outcome:  outcomeProviderFailure,
			provider: name,
			err:      &ProviderError{Provider: name, Err: err},
		}
	}

	ideas, err := ParseIdeas(reply)
	if err != nil {
		log.Error().Err(err).Str("provider", name).Int("reply_len", len(reply)).Msg("failed to parse provider reply")
		return attempt{
			outcome:  outcomeParseFailure,
			provider: name,
			err:      &ParseError{Provider: name, Raw: reply, Err: err},
		}
	}

	log.Info().Str("provider", name).Int("ideas", len(ideas)).Dur("elapsed", time.Since(start)).Msg("content ideas generated")
	return attempt{outcome: outcomeSuccess, provider: name, ideas: ideas}
}
