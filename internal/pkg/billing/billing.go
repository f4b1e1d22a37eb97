// Package billing 查询支付平台中的订阅信息
package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCustomerMismatch     = errors.New("subscription belongs to another customer")
)

type Client struct {
	api *client.API
}

type Option func(*stripe.BackendConfig)

// WithBaseURL 替换 API 地址，本地联调或测试使用
func WithBaseURL(url string) Option {
	return func(cfg *stripe.BackendConfig) {
		cfg.URL = stripe.String(url)
	}
}

func New(secretKey string, opts ...Option) *Client {
	cfg := &stripe.BackendConfig{
		// 由调用方决定是否重试
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &Client{api: api}
}

// SubscriptionStatus 查询订阅当前状态，并确认订阅属于 customerID
func (c *Client) SubscriptionStatus(ctx context.Context, subscriptionID, customerID string) (string, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrSubscriptionNotFound, subscriptionID)
		}
		return "", fmt.Errorf("failed to get subscription %s: %w", subscriptionID, err)
	}

	if sub.Customer == nil || sub.Customer.ID != customerID {
		return "", fmt.Errorf("%w: %s", ErrCustomerMismatch, subscriptionID)
	}
	return string(sub.Status), nil
}
