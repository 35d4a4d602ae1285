package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// LogEntry is a log line pushed to connected UI clients
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// wsMessage is the envelope for everything sent over the socket
type wsMessage struct {
	Type    string      `json:"type"` // "log" or "job"
	Payload interface{} `json:"payload"`
}

// WebSocketHandler pushes job progress events and filtered service
// logs to connected clients
type WebSocketHandler struct {
	logger      arbor.ILogger
	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex
}

// NewWebSocketHandler creates the websocket handler and subscribes it
// to job events
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:      logger,
		clients:     make(map[*websocket.Conn]bool),
		clientMutex: make(map[*websocket.Conn]*sync.Mutex),
	}

	if eventService != nil {
		for _, eventType := range []interfaces.EventType{
			interfaces.EventJobUpdated,
			interfaces.EventJobCompleted,
			interfaces.EventJobFailed,
		} {
			eventService.Subscribe(eventType, h.onJobEvent)
		}
	}

	return h
}

// HandleWebSocket upgrades the connection and registers the client
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.logger.Debug().Int("clients", h.clientCount()).Msg("WebSocket client connected")

	// Drain reads until the client goes away
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastLog pushes one log line to all clients
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast(wsMessage{Type: "log", Payload: entry})
}

// BroadcastJob pushes a job snapshot to all clients
func (h *WebSocketHandler) BroadcastJob(job *models.Job) {
	h.broadcast(wsMessage{Type: "job", Payload: job})
}

func (h *WebSocketHandler) onJobEvent(ctx context.Context, event interfaces.Event) error {
	if job, ok := event.Payload.(*models.Job); ok {
		h.BroadcastJob(job)
	}
	return nil
}

func (h *WebSocketHandler) broadcast(msg wsMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.mu.RLock()
		mutex := h.clientMutex[conn]
		h.mu.RUnlock()
		if mutex == nil {
			continue
		}

		mutex.Lock()
		err := conn.WriteJSON(msg)
		mutex.Unlock()

		if err != nil {
			h.removeClient(conn)
		}
	}
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		conn.Close()
	}
	h.mu.Unlock()

	h.logger.Debug().Int("clients", h.clientCount()).Msg("WebSocket client disconnected")
}

func (h *WebSocketHandler) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
