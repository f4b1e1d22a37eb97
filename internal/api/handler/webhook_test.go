package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"

	"github.com/qs3c/idea_go_server/internal/repository"
	"github.com/qs3c/idea_go_server/internal/service"
	"github.com/qs3c/idea_go_server/internal/testutil"
)

func setupWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	subscriptionService := service.NewSubscriptionService(repository.NewUserRepository(db), nil, nil, testConfig())
	handler := NewWebhookHandler(subscriptionService)

	router := gin.New()
	router.POST("/webhook/stripe", handler.Stripe)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return router, db, cleanup
}

func postWebhook(router http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func checkoutPayload(userID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_handler_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"customer": "cus_handler",
			"subscription": "sub_handler",
			"metadata": {"userId": %q}
		}}
	}`, userID))
}

func sign(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func TestWebhookHandler_CheckoutCompleted(t *testing.T) {
	router, db, cleanup := setupWebhookRouter(t)
	defer cleanup()

	payload := checkoutPayload("user_hook")
	w := postWebhook(router, payload, sign(payload, testConfig().Stripe.WebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	user := testutil.ReloadUser(t, db, "user_hook")
	assert.True(t, user.IsPremium)
	assert.Equal(t, 0, user.SearchCount)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	router, db, cleanup := setupWebhookRouter(t)
	defer cleanup()

	payload := checkoutPayload("user_forged")
	w := postWebhook(router, payload, sign(payload, "whsec_attacker"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ErrWebhookSignatureInvalid.Error(), parseResponse(t, w).Message)

	var count int64
	db.Table("users").Count(&count)
	assert.Zero(t, count)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	router, _, cleanup := setupWebhookRouter(t)
	defer cleanup()

	w := postWebhook(router, checkoutPayload("user_x"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_TamperedPayload(t *testing.T) {
	router, _, cleanup := setupWebhookRouter(t)
	defer cleanup()

	payload := checkoutPayload("user_a")
	signature := sign(payload, testConfig().Stripe.WebhookSecret)

	w := postWebhook(router, checkoutPayload("user_b"), signature)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
