package push

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const topic = "push:event"

// Event is the envelope broadcast to every connected browser client.
type Event struct {
	Event    string      `json:"event"`
	TenantID uint        `json:"tenantId"`
	Payload  interface{} `json:"payload"`
}

// Hub is the fire-and-forget push channel. Emitters publish onto an in-process
// event bus; the hub forwards every event to all connected websocket clients.
// Delivery failures are logged, never propagated.
type Hub struct {
	bus      EventBus.Bus
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	h := &Hub{
		bus:   EventBus.New(),
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if err := h.bus.Subscribe(topic, h.broadcast); err != nil {
		zap.S().Errorf("push: bus subscribe failed: %v", err)
	}
	return h
}

// Emit publishes a named event for a tenant. It never blocks the caller on
// websocket delivery.
func (h *Hub) Emit(event string, tenantID uint, payload interface{}) {
	h.bus.Publish(topic, Event{Event: event, TenantID: tenantID, Payload: payload})
}

func (h *Hub) broadcast(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(evt); err != nil {
			zap.S().Debugf("push: dropping client: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Handle upgrades the request to a websocket and keeps the connection
// registered until the peer goes away.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Warnf("push: websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// QRDataURL renders a login challenge code as a PNG data URL so browser
// clients can display it directly.
func QRDataURL(code string) (string, error) {
	qrBytes, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes), nil
}
