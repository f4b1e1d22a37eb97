package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/idea_go_server/internal/pkg/jwt"
	"github.com/qs3c/idea_go_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func authRouter() *gin.Engine {
	router := gin.New()
	router.Use(Auth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestAuth_Success(t *testing.T) {
	token, err := jwt.GenerateToken("user_123", testJWTSecret, 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "user_123", result["user_id"])
}

func TestAuth_Rejected(t *testing.T) {
	otherSecret, err := jwt.GenerateToken("user_123", "different-secret", 24)
	require.NoError(t, err)

	expired := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "user_123",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "some-token-without-bearer"},
		{"invalid token", "Bearer invalid-token"},
		{"wrong secret", "Bearer " + otherSecret},
		{"expired token", "Bearer " + expiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			authRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := parseResponse(t, w)
			assert.Equal(t, response.StatusError, resp.Status)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		set    bool
		wantID string
		wantOK bool
	}{
		{"not set", nil, false, "", false},
		{"wrong type", int64(789), true, "", false},
		{"empty string", "", true, "", false},
		{"valid", "user_789", true, "user_789", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tt.set {
				c.Set(UserIDKey, tt.value)
			}

			userID, ok := GetUserID(c)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, userID)
		})
	}
}

func TestRequireSelf(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, "user_me")
		c.Next()
	})
	router.GET("/users/:userId", RequireSelf("userId"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest("GET", "/users/user_me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/users/user_other", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.StatusError, parseResponse(t, w).Status)
}

func TestRequireSelf_Unauthenticated(t *testing.T) {
	router := gin.New()
	router.GET("/users/:userId", RequireSelf("userId"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest("GET", "/users/user_me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
