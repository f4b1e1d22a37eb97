package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/idea_go_server/config"
	"github.com/qs3c/idea_go_server/internal/api/handler"
	"github.com/qs3c/idea_go_server/internal/api/middleware"
)

type Router struct {
	generationHandler   *handler.GenerationHandler
	subscriptionHandler *handler.SubscriptionHandler
	webhookHandler      *handler.WebhookHandler
	healthHandler       *handler.HealthHandler
	websocketHandler    *handler.WebSocketHandler
	planResolver        middleware.PlanResolver
	cfg                 *config.Config
}

func NewRouter(
	generationHandler *handler.GenerationHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	webhookHandler *handler.WebhookHandler,
	healthHandler *handler.HealthHandler,
	websocketHandler *handler.WebSocketHandler,
	planResolver middleware.PlanResolver,
	cfg *config.Config,
) *Router {
	return &Router{
		generationHandler:   generationHandler,
		subscriptionHandler: subscriptionHandler,
		webhookHandler:      webhookHandler,
		healthHandler:       healthHandler,
		websocketHandler:    websocketHandler,
		planResolver:        planResolver,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", r.healthHandler.Check)

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 支付平台回调，靠签名鉴权
		api.POST("/webhook/stripe", r.webhookHandler.Stripe)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.POST("/generate-ideas", middleware.ResolvePlan(r.planResolver), r.generationHandler.GenerateIdeas)

			// 只能操作自己的订阅
			users := authenticated.Group("/users/:userId")
			users.Use(middleware.RequireSelf("userId"))
			{
				users.GET("/subscription", r.subscriptionHandler.GetStatus)
				users.POST("/subscription", r.subscriptionHandler.Confirm)
			}
		}
	}

	return engine
}
