package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"

	"github.com/qs3c/idea_go_server/config"
	"github.com/qs3c/idea_go_server/internal/pkg/billing"
	"github.com/qs3c/idea_go_server/internal/repository"
)

var (
	ErrWebhookSignatureInvalid = errors.New("webhook 签名校验失败")
	ErrWebhookNotConfigured    = errors.New("webhook 密钥未配置")
	ErrWebhookPayload          = errors.New("webhook 事件内容无效")
	ErrSubscriptionUnverified  = errors.New("订阅信息无法核实")
	ErrBillingUnavailable      = errors.New("支付平台暂不可用")
)

// StatusActive 支付平台中唯一视为付费的订阅状态
const StatusActive = string(stripe.SubscriptionStatusActive)

// EventRecorder 记录已处理的 webhook 事件，避免重复投递的旧事件覆盖新状态
type EventRecorder interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// SubscriptionNotifier 订阅状态变更通知
type SubscriptionNotifier interface {
	NotifySubscriptionChanged(ctx context.Context, userID string, isPremium bool) error
}

// SubscriptionVerifier 向支付平台查询订阅的真实状态
type SubscriptionVerifier interface {
	SubscriptionStatus(ctx context.Context, subscriptionID, customerID string) (string, error)
}

type SubscriptionService struct {
	userRepo      *repository.UserRepository
	events        EventRecorder
	notifier      SubscriptionNotifier
	verifier      SubscriptionVerifier
	webhookSecret string
}

type SubscriptionOption func(*SubscriptionService)

// WithVerifier 客户端确认订阅时向支付平台核实
func WithVerifier(verifier SubscriptionVerifier) SubscriptionOption {
	return func(s *SubscriptionService) {
		s.verifier = verifier
	}
}

func NewSubscriptionService(
	userRepo *repository.UserRepository,
	events EventRecorder,
	notifier SubscriptionNotifier,
	cfg *config.Config,
	opts ...SubscriptionOption,
) *SubscriptionService {
	s := &SubscriptionService{
		userRepo:      userRepo,
		events:        events,
		notifier:      notifier,
		webhookSecret: cfg.Stripe.WebhookSecret,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyCheckoutCompleted 结账完成，开通会员
func (s *SubscriptionService) ApplyCheckoutCompleted(ctx context.Context, userID, subscriptionID, customerID string) error {
	if err := s.userRepo.UpsertSubscription(ctx, userID, subscriptionID, customerID, true); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	log.Info().Str("user_id", userID).Str("customer_id", customerID).Msg("user upgraded to premium")
	s.notify(ctx, userID, true)
	return nil
}

// ApplySubscriptionStatusChanged 订阅状态变更，仅 active 视为付费
func (s *SubscriptionService) ApplySubscriptionStatusChanged(ctx context.Context, customerID, status string) error {
	return s.setPremiumByCustomer(ctx, customerID, status == StatusActive, status)
}

// ApplySubscriptionDeleted 订阅取消
func (s *SubscriptionService) ApplySubscriptionDeleted(ctx context.Context, customerID string) error {
	return s.setPremiumByCustomer(ctx, customerID, false, "deleted")
}

// ApplyClientConfirmation 前端结账回跳后主动确认订阅。
// 配置了 verifier 时以支付平台返回的状态为准；否则只接受 webhook 已关联到该用户的客户。
func (s *SubscriptionService) ApplyClientConfirmation(ctx context.Context, userID, subscriptionID, customerID, status string) error {
	status, err := s.confirmedStatus(ctx, userID, subscriptionID, customerID, status)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("customer_id", customerID).Msg("client subscription confirmation rejected")
		return err
	}

	isPremium := status == StatusActive
	if err := s.userRepo.UpsertSubscription(ctx, userID, subscriptionID, customerID, isPremium); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	log.Info().Str("user_id", userID).Str("status", status).Msg("subscription confirmed by client")
	s.notify(ctx, userID, isPremium)
	return nil
}

func (s *SubscriptionService) confirmedStatus(ctx context.Context, userID, subscriptionID, customerID, claimed string) (string, error) {
	if s.verifier != nil {
		status, err := s.verifier.SubscriptionStatus(ctx, subscriptionID, customerID)
		if err != nil {
			if errors.Is(err, billing.ErrSubscriptionNotFound) || errors.Is(err, billing.ErrCustomerMismatch) {
				return "", fmt.Errorf("%w: %v", ErrSubscriptionUnverified, err)
			}
			return "", fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
		}
		return status, nil
	}

	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: no linked customer", ErrSubscriptionUnverified)
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if user.CustomerID == nil || *user.CustomerID != customerID {
		return "", fmt.Errorf("%w: customer not linked to user", ErrSubscriptionUnverified)
	}
	return claimed, nil
}

func (s *SubscriptionService) setPremiumByCustomer(ctx context.Context, customerID string, isPremium bool, status string) error {
	user, err := s.userRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 从未关联过的客户，多为过期或重复事件
			log.Warn().Str("customer_id", customerID).Str("status", status).Msg("subscription event for unknown customer ignored")
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.userRepo.SetPremiumByCustomerID(ctx, customerID, isPremium); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	log.Info().Str("user_id", user.UserID).Str("customer_id", customerID).Str("status", status).
		Bool("is_premium", isPremium).Msg("subscription status updated")
	s.notify(ctx, user.UserID, isPremium)
	return nil
}

func (s *SubscriptionService) notify(ctx context.Context, userID string, isPremium bool) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifySubscriptionChanged(ctx, userID, isPremium); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to publish subscription change")
	}
}

// HandleWebhook 校验签名后处理支付平台事件，签名无效时不做任何修改
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook signature verification failed")
		return fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	}

	logger := log.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

	if s.events != nil && event.ID != "" {
		seen, err := s.events.Seen(ctx, event.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("event store unavailable, applying event anyway")
		} else if seen {
			logger.Info().Msg("duplicate stripe event skipped")
			return nil
		}
	}

	if err := s.dispatch(ctx, event); err != nil {
		return err
	}

	if s.events != nil && event.ID != "" {
		if err := s.events.MarkProcessed(ctx, event.ID); err != nil {
			logger.Warn().Err(err).Msg("failed to record processed event")
		}
	}
	return nil
}

func (s *SubscriptionService) dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: %v", ErrWebhookPayload, err)
		}

		userID := sess.Metadata["userId"]
		if userID == "" {
			userID = sess.ClientReferenceID
		}
		if userID == "" {
			log.Warn().Str("event_id", event.ID).Msg("checkout session without user reference ignored")
			return nil
		}

		var subscriptionID, customerID string
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		return s.ApplyCheckoutCompleted(ctx, userID, subscriptionID, customerID)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrWebhookPayload, err)
		}
		if sub.Customer == nil || sub.Customer.ID == "" {
			return fmt.Errorf("%w: missing customer id", ErrWebhookPayload)
		}

		if event.Type == "customer.subscription.deleted" {
			return s.ApplySubscriptionDeleted(ctx, sub.Customer.ID)
		}
		return s.ApplySubscriptionStatusChanged(ctx, sub.Customer.ID, string(sub.Status))

	default:
		log.Debug().Str("event_type", string(event.Type)).Msg("unhandled stripe event")
		return nil
	}
}
