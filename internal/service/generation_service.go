package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qs3c/idea_go_server/config"
	"github.com/qs3c/idea_go_server/internal/model/dto"
	"github.com/qs3c/idea_go_server/internal/pkg/llm"
	"github.com/qs3c/idea_go_server/internal/pkg/prompt"
)

// IdeaGenerator 内容创意生成，由 llm.Pipeline 实现
type IdeaGenerator interface {
	Generate(ctx context.Context, system, user string) ([]llm.ContentIdea, error)
}

// GenerateInput 生成请求，Premium 由服务端根据订阅状态确定
type GenerateInput struct {
	UserID   string
	Keywords string
	Days     int
	Style    string
	Premium  bool
}

type GenerateResult struct {
	Ideas  []llm.ContentIdea
	Days   int
	Limits *dto.Limits
}

type GenerationService struct {
	quotaService *QuotaService
	generator    IdeaGenerator
	limits       prompt.Limits
}

func NewGenerationService(quotaService *QuotaService, generator IdeaGenerator, cfg *config.Config) *GenerationService {
	return &GenerationService{
		quotaService: quotaService,
		generator:    generator,
		limits: prompt.Limits{
			FreeMaxDays:    cfg.Quota.FreeMaxDays,
			PremiumMaxDays: cfg.Quota.PremiumMaxDays,
		},
	}
}

// GenerateIdeas 检查配额、生成内容并在成功后扣减配额。
// 生成失败或请求取消时不扣减。
func (s *GenerationService) GenerateIdeas(ctx context.Context, in *GenerateInput) (*GenerateResult, error) {
	premium := in.Premium

	if !premium {
		status, err := s.quotaService.CheckAndReserve(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if status.IsPremium {
			premium = true
		} else if !status.Allowed {
			return nil, &QuotaExceededError{Status: status}
		}
	}

	p := s.limits.Build(prompt.Request{
		Keywords: in.Keywords,
		Days:     in.Days,
		Style:    in.Style,
		Premium:  premium,
	})

	start := time.Now()
	ideas, err := s.generator.Generate(ctx, p.System, p.User)
	if err != nil {
		log.Error().Err(err).Str("user_id", in.UserID).Bool("premium", premium).Msg("content generation failed")
		return nil, err
	}

	if premium {
		return &GenerateResult{
			Ideas:  ideas,
			Days:   p.Days,
			Limits: &dto.Limits{IsPremium: true, Unlimited: true},
		}, nil
	}

	// 客户端已断开，不记次数
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status, err := s.quotaService.Commit(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			log.Warn().Str("user_id", in.UserID).Msg("quota consumed by a concurrent request, discarding ideas")
		}
		return nil, err
	}

	log.Info().Str("user_id", in.UserID).Int("ideas", len(ideas)).Int("remaining", status.Remaining).
		Dur("elapsed", time.Since(start)).Msg("content ideas delivered")

	return &GenerateResult{
		Ideas:  ideas,
		Days:   p.Days,
		Limits: status.Limits(),
	}, nil
}
