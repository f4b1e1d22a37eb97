package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qs3c/idea_go_server/internal/api"
	"github.com/qs3c/idea_go_server/internal/api/handler"
	"github.com/qs3c/idea_go_server/internal/database"
	"github.com/qs3c/idea_go_server/internal/pkg/billing"
	"github.com/qs3c/idea_go_server/internal/pkg/eventstore"
	"github.com/qs3c/idea_go_server/internal/pkg/llm"
	"github.com/qs3c/idea_go_server/internal/pkg/pubsub"
	"github.com/qs3c/idea_go_server/internal/pkg/ws"
	"github.com/qs3c/idea_go_server/internal/repository"
	"github.com/qs3c/idea_go_server/internal/service"
)

const shutdownTimeout = 10 * time.Second

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 初始化数据库
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("database connected")

		if autoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
		}

		// 初始化 Redis
		rdb, err := database.NewRedis(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer rdb.Close()
		log.Info().Msg("redis connected")

		pipeline, err := llm.NewPipelineFromConfig(&cfg.Generation)
		if err != nil {
			return fmt.Errorf("failed to init providers: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// 订阅状态变更经 Redis 广播，每个实例推送给自己持有的连接
		wsHub := ws.NewHub()
		go func() {
			err := pubsub.NewSubscriber(rdb).Subscribe(ctx, func(msg *pubsub.SubscriptionMessage) {
				if err := wsHub.NotifySubscription(msg.UserID, msg.IsPremium); err != nil {
					log.Warn().Err(err).Str("user_id", msg.UserID).Msg("failed to push subscription update")
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("subscription listener stopped")
			}
		}()

		// 初始化 Repository
		userRepo := repository.NewUserRepository(db)

		// 初始化 Service
		quotaService := service.NewQuotaService(userRepo, cfg)
		generationService := service.NewGenerationService(quotaService, pipeline, cfg)
		var subscriptionOpts []service.SubscriptionOption
		if cfg.Stripe.SecretKey != "" {
			subscriptionOpts = append(subscriptionOpts, service.WithVerifier(billing.New(cfg.Stripe.SecretKey)))
		} else {
			log.Warn().Msg("stripe secret key not set, client confirmations limited to webhook-linked customers")
		}
		subscriptionService := service.NewSubscriptionService(
			userRepo,
			eventstore.New(rdb, cfg.Stripe.EventTTL),
			pubsub.NewPublisher(rdb),
			cfg,
			subscriptionOpts...,
		)

		// 初始化 Router
		router := api.NewRouter(
			handler.NewGenerationHandler(generationService),
			handler.NewSubscriptionHandler(subscriptionService, quotaService),
			handler.NewWebhookHandler(subscriptionService),
			handler.NewHealthHandler(db, rdb),
			handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins),
			quotaService,
			cfg,
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router.Setup(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "run schema migration before serving")
}
