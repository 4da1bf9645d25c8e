package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/http/response"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
)

type RealtimeHandler struct {
	log   *logger.Logger
	hub   *realtime.SSEHub
	evict func(sessionID uuid.UUID)

	mu      sync.RWMutex
	clients map[uuid.UUID]*realtime.SSEClient // keyed by session ID
}

// evict runs when a session's last stream closes, so per-session caches
// (preferences, hover state, voice catalog) do not outlive the browser.
func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, evict func(sessionID uuid.UUID)) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "realtime"),
		hub:     hub,
		evict:   evict,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /api/sse/stream
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	h.log.Info("SSE stream open", "session_id", sessionID.String())

	h.mu.Lock()
	// One stream per session: a reconnect replaces the old client.
	if existing, exists := h.clients[sessionID]; exists {
		h.hub.CloseClient(existing)
		delete(h.clients, sessionID)
	}
	client := h.hub.NewSSEClient(sessionID)
	h.clients[sessionID] = client
	h.mu.Unlock()

	h.hub.AddChannel(client, realtime.SessionChannel(sessionID))

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	// A reconnect may already have replaced this client; only the
	// session's current stream cleans up the map and evicts state.
	h.mu.Lock()
	last := h.clients[sessionID] == client
	if last {
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()
	h.hub.CloseClient(client)
	if last && h.evict != nil {
		h.evict(sessionID)
	}
}

// POST /api/sse/subscribe
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	h.changeSubscription(c, h.hub.AddChannel)
}

// POST /api/sse/unsubscribe
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	h.changeSubscription(c, h.hub.RemoveChannel)
}

func (h *RealtimeHandler) changeSubscription(c *gin.Context, apply func(*realtime.SSEClient, string)) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return
	}

	h.mu.RLock()
	client, exists := h.clients[sessionID]
	h.mu.RUnlock()
	if !exists {
		c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this session"})
		return
	}
	apply(client, req.Channel)
	response.RespondOK(c, gin.H{"channel": req.Channel})
}
