package push

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRDataURL(t *testing.T) {
	url, err := QRDataURL("2@login-challenge")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Greater(t, len(url), len("data:image/png;base64,"))
}

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()

	router := gin.New()
	router.GET("/ws", hub.Handle)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a beat to register the connection.
	time.Sleep(50 * time.Millisecond)

	hub.Emit("status", 7, "CONNECTED")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, "status", evt.Event)
	assert.EqualValues(t, 7, evt.TenantID)
	assert.Equal(t, "CONNECTED", evt.Payload)
}

func TestHubEmitWithoutClients(t *testing.T) {
	hub := NewHub()
	// Fire-and-forget: no client, no panic, no block.
	hub.Emit("qr", 1, map[string]interface{}{"code": "2@abc"})
}
