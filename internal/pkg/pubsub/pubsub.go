package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	ChannelSubscriptionUpdates = "subscription_updates"

	TypeSubscriptionUpdated = "subscription_updated"
)

// SubscriptionMessage 订阅状态变更消息
type SubscriptionMessage struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	IsPremium bool      `json:"is_premium"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishSubscription 发布订阅状态消息
func (p *Publisher) PublishSubscription(ctx context.Context, msg *SubscriptionMessage) error {
	msg.Type = TypeSubscriptionUpdated
	if msg.UpdatedAt.IsZero() {
		msg.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	return p.client.Publish(ctx, ChannelSubscriptionUpdates, data).Err()
}

// NotifySubscriptionChanged 通知用户订阅状态已变化
func (p *Publisher) NotifySubscriptionChanged(ctx context.Context, userID string, isPremium bool) error {
	return p.PublishSubscription(ctx, &SubscriptionMessage{
		UserID:    userID,
		IsPremium: isPremium,
	})
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅状态变更消息，直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*SubscriptionMessage)) error {
	ps := s.client.Subscribe(ctx, ChannelSubscriptionUpdates)
	defer ps.Close()

	// 等待订阅确认
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", ChannelSubscriptionUpdates, err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var subMsg SubscriptionMessage
			if err := json.Unmarshal([]byte(msg.Payload), &subMsg); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("invalid subscription message")
				continue
			}

			handler(&subMsg)
		}
	}
}
