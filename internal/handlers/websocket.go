package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
	"github.com/ternarybob/docinsight/internal/services/conversation"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for every frame sent to a client
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketHandler streams session events to browser clients, one connection per session view
type WebSocketHandler struct {
	manager      *conversation.Manager
	eventService interfaces.EventService
	logger       arbor.ILogger

	mu      sync.RWMutex
	clients map[*websocket.Conn]string // conn -> session ID
}

func NewWebSocketHandler(manager *conversation.Manager, eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:      manager,
		eventService: eventService,
		logger:       logger,
		clients:      make(map[*websocket.Conn]string),
	}
}

// HandleWebSocket serves GET /api/sessions/{id}/events. The current snapshot is sent first,
// then every event for that session as it is published.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, _ := SessionPath(r.URL.Path)
	ctrl, err := h.manager.Get(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	var writeMu sync.Mutex
	send := func(msg WSMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(msg)
	}

	h.mu.Lock()
	h.clients[conn] = id
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Str("session_id", id).Int("clients", clientCount).Msg("WebSocket client connected")

	handler := func(ctx context.Context, event interfaces.Event) error {
		payload, ok := event.Payload.(models.SessionEventPayload)
		if !ok || payload.SessionID != id {
			return nil
		}
		return send(WSMessage{Type: string(event.Type), Payload: payload.Snapshot})
	}

	var subs []interfaces.Subscription
	if h.eventService != nil {
		for _, eventType := range interfaces.SessionEventTypes {
			sub, err := h.eventService.Subscribe(eventType, handler)
			if err != nil {
				h.logger.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to subscribe WebSocket client")
				continue
			}
			subs = append(subs, sub)
		}
	}

	defer func() {
		for _, sub := range subs {
			h.eventService.Unsubscribe(sub)
		}

		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Str("session_id", id).Int("remaining", remaining).Msg("WebSocket client disconnected")
	}()

	if err := send(WSMessage{Type: "snapshot", Payload: ctrl.Snapshot()}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send initial snapshot")
		return
	}

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
