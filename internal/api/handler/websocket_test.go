package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/idea_go_server/internal/pkg/jwt"
	"github.com/qs3c/idea_go_server/internal/pkg/ws"
)

const testWSSecret = "ws-test-secret"

func setupWebSocketServer(t *testing.T, origins []string) (*httptest.Server, *ws.Hub) {
	t.Helper()

	hub := ws.NewHub()
	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(hub, testWSSecret, origins).Handle)

	return httptest.NewServer(router), hub
}

func wsURL(server *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
}

func TestWebSocketHandler_PushesSubscriptionUpdate(t *testing.T) {
	server, hub := setupWebSocketServer(t, nil)
	defer server.Close()

	token, err := jwt.GenerateToken("user_ws", testWSSecret, 1)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline("user_ws") }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.NotifySubscription("user_ws", true))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"subscription_updated","data":{"isPremium":true}}`, string(msg))

	conn.Close()
	require.Eventually(t, func() bool { return !hub.IsOnline("user_ws") }, time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsBadToken(t *testing.T) {
	server, _ := setupWebSocketServer(t, nil)
	defer server.Close()

	for _, token := range []string{"", "not-a-token"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	server, _ := setupWebSocketServer(t, []string{"https://ideas.example.com"})
	defer server.Close()

	token, err := jwt.GenerateToken("user_ws", testWSSecret, 1)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://ideas.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), header)
	require.NoError(t, err)
	conn.Close()
}
