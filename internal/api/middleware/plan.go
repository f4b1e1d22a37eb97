package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/qs3c/idea_go_server/internal/pkg/response"
)

const (
	PremiumKey = "isPremium"
)

// PlanResolver 查询用户套餐
type PlanResolver interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}

// ResolvePlan 根据订阅状态写入套餐标记，查询失败时拒绝请求
func ResolvePlan(resolver PlanResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		premium, err := resolver.IsPremium(c.Request.Context(), userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to resolve plan")
			response.ServerError(c, "套餐查询失败", err)
			c.Abort()
			return
		}

		c.Set(PremiumKey, premium)
		c.Next()
	}
}

// IsPremium 从上下文获取套餐标记，未设置时视为免费用户
func IsPremium(c *gin.Context) bool {
	return c.GetBool(PremiumKey)
}
