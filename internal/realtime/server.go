package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/admin"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/middleware"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	MessageAdminState  = "admin.state"
	MessageKitchenBell = "kitchen.bell"
	MessageError       = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	Hub               *Hub
	Source            admin.Source
	Logger            *zap.Logger
	JWTSecret         string
	DisplayLimit      int
	HeartbeatInterval time.Duration
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(value)
}

func (c *wsClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

type clientMessage struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// AdminWS streams the staff dashboard. Each connection owns its own view
// model, reloaded in full on every change notification.
func (s *Server) AdminWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if _, err := middleware.AuthenticateStaff(r, s.JWTSecret); err != nil {
		_ = conn.WriteJSON(map[string]any{"type": MessageError, "message": "unauthorized"})
		return
	}

	filter, ok := admin.ParseFilter(r.URL.Query().Get("status"))
	if !ok {
		filter = admin.All
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wsClient{conn: conn}
	sub := s.Hub.Subscribe()
	defer sub.Close()

	vm := admin.New(s.Source, s.logger())
	vm.Refresh(ctx)
	if err := client.writeJSON(s.stateMessage(vm, filter)); err != nil {
		return
	}

	filters := make(chan admin.StatusFilter, 1)
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			_, data, readErr := conn.ReadMessage()
			if readErr != nil {
				return
			}
			var msg clientMessage
			if json.Unmarshal(data, &msg) != nil || msg.Type != "filter" {
				continue
			}
			if f, ok := admin.ParseFilter(msg.Status); ok {
				select {
				case filters <- f:
				default:
				}
			}
		}
	}()

	heartbeat := s.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		case f := <-filters:
			filter = f
			if err := client.writeJSON(s.stateMessage(vm, filter)); err != nil {
				return
			}
		case <-sub.Notify():
			for _, change := range sub.Drain() {
				vm.HandleChange(ctx, change)
			}
			for _, o := range vm.NewPending() {
				if err := client.writeJSON(map[string]any{"type": MessageKitchenBell, "data": o}); err != nil {
					return
				}
			}
			if err := client.writeJSON(s.stateMessage(vm, filter)); err != nil {
				return
			}
		}
	}
}

func (s *Server) stateMessage(vm *admin.ViewModel, filter admin.StatusFilter) map[string]any {
	return map[string]any{"type": MessageAdminState, "data": vm.Snapshot(filter, s.DisplayLimit)}
}
