package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/idea_go_server/internal/api/middleware"
	"github.com/qs3c/idea_go_server/internal/pkg/response"
	"github.com/qs3c/idea_go_server/internal/repository"
	"github.com/qs3c/idea_go_server/internal/service"
	"github.com/qs3c/idea_go_server/internal/testutil"
)

func setupSubscriptionRouter(t *testing.T, userID string) (*gin.Engine, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()
	userRepo := repository.NewUserRepository(db)

	quotaService := service.NewQuotaService(userRepo, cfg, service.WithClock(fixedClock))
	subscriptionService := service.NewSubscriptionService(userRepo, nil, nil, cfg)
	handler := NewSubscriptionHandler(subscriptionService, quotaService)

	router := gin.New()
	router.Use(mockAuth(userID))
	users := router.Group("/users/:userId", middleware.RequireSelf("userId"))
	users.GET("/subscription", handler.GetStatus)
	users.POST("/subscription", handler.Confirm)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return router, db, cleanup
}

func TestSubscriptionHandler_GetStatus_Free(t *testing.T) {
	router, db, cleanup := setupSubscriptionRouter(t, "user_me")
	defer cleanup()

	testutil.TestUser(t, db, testutil.WithUserID("user_me"), testutil.WithSearches(1, testNow))

	w := performRequest(router, "GET", "/users/user_me/subscription", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, response.StatusSuccess, resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["isPremium"])
	assert.Equal(t, float64(1), data["searchesRemaining"])
	assert.Equal(t, float64(2), data["dailyLimit"])
	assert.Equal(t, "2026-10-15", data["lastSearchDate"])
	assert.Equal(t, "2026-10-16T00:00:00Z", data["resetAt"])
}

func TestSubscriptionHandler_GetStatus_UnknownUser(t *testing.T) {
	router, _, cleanup := setupSubscriptionRouter(t, "user_new")
	defer cleanup()

	w := performRequest(router, "GET", "/users/user_new/subscription", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, false, data["isPremium"])
	assert.Equal(t, float64(2), data["searchesRemaining"])
	_, hasDate := data["lastSearchDate"]
	assert.False(t, hasDate)
}

func TestSubscriptionHandler_GetStatus_Premium(t *testing.T) {
	router, db, cleanup := setupSubscriptionRouter(t, "user_paid")
	defer cleanup()

	testutil.TestUser(t, db, testutil.WithUserID("user_paid"), testutil.WithPremium())

	w := performRequest(router, "GET", "/users/user_paid/subscription", nil)

	data := parseResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, true, data["isPremium"])
	_, hasRemaining := data["searchesRemaining"]
	assert.False(t, hasRemaining)
}

func TestSubscriptionHandler_ForeignUser(t *testing.T) {
	router, _, cleanup := setupSubscriptionRouter(t, "user_me")
	defer cleanup()

	w := performRequest(router, "GET", "/users/user_other/subscription", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, "POST", "/users/user_other/subscription", gin.H{
		"subscriptionId": "sub_1", "customerId": "cus_1", "status": "active",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubscriptionHandler_Confirm(t *testing.T) {
	router, db, cleanup := setupSubscriptionRouter(t, "user_me")
	defer cleanup()

	testutil.TestUser(t, db, testutil.WithUserID("user_me"), testutil.WithSearches(2, testNow), testutil.WithCustomer("cus_1"))

	w := performRequest(router, "POST", "/users/user_me/subscription", gin.H{
		"subscriptionId": "sub_1", "customerId": "cus_1", "status": "active",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, response.StatusSuccess, resp.Status)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["isPremium"])

	user := testutil.ReloadUser(t, db, "user_me")
	assert.True(t, user.IsPremium)
	assert.Equal(t, 2, user.SearchCount)
	require.NotNil(t, user.CustomerID)
	assert.Equal(t, "cus_1", *user.CustomerID)
}

func TestSubscriptionHandler_Confirm_UnlinkedCustomerRejected(t *testing.T) {
	router, db, cleanup := setupSubscriptionRouter(t, "user_me")
	defer cleanup()

	w := performRequest(router, "POST", "/users/user_me/subscription", gin.H{
		"subscriptionId": "sub_made_up", "customerId": "cus_made_up", "status": "active",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.ErrSubscriptionUnverified.Error(), parseResponse(t, w).Message)

	var count int64
	db.Table("users").Where("user_id = ?", "user_me").Count(&count)
	assert.Zero(t, count)
}

func TestSubscriptionHandler_Confirm_InvalidBody(t *testing.T) {
	router, _, cleanup := setupSubscriptionRouter(t, "user_me")
	defer cleanup()

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing ids", gin.H{"status": "active"}},
		{"unknown status", gin.H{"subscriptionId": "sub_1", "customerId": "cus_1", "status": "paused_forever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/users/user_me/subscription", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
