package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"SqueezeWatch/internal/domain/models"
	xlogger "SqueezeWatch/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveHub fans freshly computed signals out to websocket subscribers.
// Slow clients are dropped rather than allowed to stall the pipeline.
type LiveHub struct {
	logger  *xlogger.Logger
	mu      sync.RWMutex
	clients map[*liveClient]struct{}
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewLiveHub(logger *xlogger.Logger) *LiveHub {
	return &LiveHub{logger: logger, clients: make(map[*liveClient]struct{})}
}

func (h *LiveHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/live", h.Serve)
}

// Serve upgrades the connection and streams signals until the client leaves.
func (h *LiveHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &liveClient{conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Info("live client connected", xlogger.Int("clients", n))
	}

	go h.writeLoop(client)
	h.readLoop(client)
	return nil
}

// BroadcastSignal delivers one signal to every connected client.
func (h *LiveHub) BroadcastSignal(sig models.SqueezeSignal) {
	b, err := json.Marshal(sig)
	if err != nil {
		return
	}

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- b:
		default:
			// send buffer full, disconnect the laggard
			go h.drop(client)
		}
	}
	h.mu.RUnlock()
}

// ClientCount reports connected subscribers.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *LiveHub) Close() error {
	h.mu.Lock()
	clients := make([]*liveClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
	return nil
}

func (h *LiveHub) writeLoop(client *liveClient) {
	for b := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.drop(client)
			return
		}
	}
}

func (h *LiveHub) readLoop(client *liveClient) {
	defer h.drop(client)
	for {
		// clients only listen; reads just detect disconnects
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHub) drop(client *liveClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	close(client.send)
	_ = client.conn.Close()
}
