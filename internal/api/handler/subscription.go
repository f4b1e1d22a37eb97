package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/idea_go_server/internal/model/dto"
	"github.com/qs3c/idea_go_server/internal/pkg/response"
	"github.com/qs3c/idea_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	quotaService        *service.QuotaService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, quotaService *service.QuotaService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		quotaService:        quotaService,
	}
}

// GetStatus 获取订阅状态与剩余次数
// GET /api/v1/users/:userId/subscription
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	userID := c.Param("userId")

	resp, err := h.statusOf(c, userID)
	if err != nil {
		response.ServerError(c, "", err)
		return
	}

	response.Success(c, resp)
}

// Confirm 前端结账完成后确认订阅
// POST /api/v1/users/:userId/subscription
func (h *SubscriptionHandler) Confirm(c *gin.Context) {
	userID := c.Param("userId")

	var req dto.ConfirmSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	err := h.subscriptionService.ApplyClientConfirmation(c.Request.Context(), userID, req.SubscriptionID, req.CustomerID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionUnverified):
			response.PermissionError(c, service.ErrSubscriptionUnverified.Error())
		case errors.Is(err, service.ErrBillingUnavailable):
			response.Error(c, http.StatusServiceUnavailable, service.ErrBillingUnavailable.Error(), err)
		default:
			response.ServerError(c, "", err)
		}
		return
	}

	resp, err := h.statusOf(c, userID)
	if err != nil {
		response.ServerError(c, "", err)
		return
	}

	response.SuccessWithMessage(c, "订阅状态已更新", resp)
}

func (h *SubscriptionHandler) statusOf(c *gin.Context, userID string) (*dto.SubscriptionStatusResponse, error) {
	status, err := h.quotaService.Status(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubscriptionStatusResponse{IsPremium: status.IsPremium}
	if !status.IsPremium {
		remaining, daily := status.Remaining, status.DailyLimit
		resp.SearchesRemaining = &remaining
		resp.DailyLimit = &daily
		resp.LastSearchDate = status.LastSearchDate
		resp.ResetAt = status.ResetAt.Format(time.RFC3339)
	}
	return resp, nil
}
