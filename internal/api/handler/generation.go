package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/idea_go_server/internal/api/middleware"
	"github.com/qs3c/idea_go_server/internal/model/dto"
	"github.com/qs3c/idea_go_server/internal/pkg/llm"
	"github.com/qs3c/idea_go_server/internal/pkg/response"
	"github.com/qs3c/idea_go_server/internal/service"
)

type GenerationHandler struct {
	generationService *service.GenerationService
}

func NewGenerationHandler(generationService *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
	}
}

// GenerateIdeas 生成内容创意
// POST /api/v1/generate-ideas
func (h *GenerationHandler) GenerateIdeas(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.GenerateIdeasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Keywords) == "" {
		response.ParamError(c, "keywords 不能为空")
		return
	}

	result, err := h.generationService.GenerateIdeas(c.Request.Context(), &service.GenerateInput{
		UserID:   userID,
		Keywords: req.Keywords,
		Days:     req.Days,
		Style:    req.Style,
		Premium:  middleware.IsPremium(c),
	})
	if err != nil {
		var quotaErr *service.QuotaExceededError
		switch {
		case errors.As(err, &quotaErr) && quotaErr.Status != nil:
			response.QuotaError(c, err.Error(), quotaErr.Status.Limits())
		case errors.Is(err, service.ErrQuotaExceeded):
			response.QuotaError(c, err.Error(), nil)
		case errors.Is(err, llm.ErrResponseParse):
			response.ServerError(c, llm.ErrResponseParse.Error(), err)
		case errors.Is(err, llm.ErrGenerationFailed):
			response.ServerError(c, llm.ErrGenerationFailed.Error(), err)
		case errors.Is(err, service.ErrStorageUnavailable):
			response.ServerError(c, service.ErrStorageUnavailable.Error(), err)
		default:
			response.ServerError(c, "", err)
		}
		return
	}

	response.SuccessWithLimits(c, result.Ideas, result.Limits)
}
