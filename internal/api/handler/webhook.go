package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/idea_go_server/internal/pkg/response"
	"github.com/qs3c/idea_go_server/internal/service"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBodyBytes   = 65536
)

type WebhookHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewWebhookHandler(subscriptionService *service.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
	}
}

// Stripe 处理支付平台事件，需要原始请求体校验签名
// POST /api/v1/webhook/stripe
func (h *WebhookHandler) Stripe(c *gin.Context) {
	signature := c.GetHeader(stripeSignatureHeader)
	if signature == "" {
		response.ParamError(c, "缺少签名")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.ParamError(c, "请求体读取失败")
		return
	}

	err = h.subscriptionService.HandleWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignatureInvalid):
			response.Error(c, http.StatusBadRequest, service.ErrWebhookSignatureInvalid.Error(), err)
		case errors.Is(err, service.ErrWebhookPayload):
			response.Error(c, http.StatusBadRequest, service.ErrWebhookPayload.Error(), err)
		case errors.Is(err, service.ErrWebhookNotConfigured):
			response.Error(c, http.StatusServiceUnavailable, err.Error(), nil)
		default:
			// 返回 5xx 让支付平台重试
			response.ServerError(c, "", err)
		}
		return
	}

	response.Success(c, gin.H{"received": true})
}
