package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/a11y-backend/internal/http/response"
	"github.com/edupulse/a11y-backend/internal/services"
)

type AccessibilityHandler struct {
	sessions services.SessionStore
	settings services.SettingsService
	styles   services.StyleService
}

func NewAccessibilityHandler(sessions services.SessionStore, settings services.SettingsService, styles services.StyleService) *AccessibilityHandler {
	return &AccessibilityHandler{sessions: sessions, settings: settings, styles: styles}
}

// GET /api/accessibility/settings
func (h *AccessibilityHandler) GetSettings(c *gin.Context) {
	sessionID, identity, ok := sessionIdentity(c)
	if !ok {
		return
	}
	sp := h.sessions.Get(sessionID)
	rec, directives := h.settings.Load(c.Request.Context(), sp, identity)
	response.RespondOK(c, gin.H{"settings": rec, "directives": directives})
}

// POST /api/accessibility/apply
// Page-load entry point: hydrate for the caller's identity and push the
// resulting styling to the session.
func (h *AccessibilityHandler) Apply(c *gin.Context) {
	sessionID, identity, ok := sessionIdentity(c)
	if !ok {
		return
	}
	sp := h.sessions.Get(sessionID)
	rec, directives, err := h.settings.Apply(c.Request.Context(), sp, identity)
	response.RespondOK(c, gin.H{
		"settings": rec, "directives": directives, "degraded": err != nil,
	})
}

// PATCH /api/accessibility/settings
func (h *AccessibilityHandler) Patch(c *gin.Context) {
	sessionID, identity, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var patch services.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		if !errors.Is(err, io.EOF) {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		// Allow an empty body as a no-op touch.
		patch = services.SettingsPatch{}
	}
	sp := h.sessions.Get(sessionID)
	rec, directives, err := h.settings.Patch(c.Request.Context(), sp, identity, patch)
	if err != nil {
		// Styling already took effect in the session; report the
		// degraded persistence alongside the applied state.
		response.RespondOK(c, gin.H{
			"settings": rec, "directives": directives, "persisted": false,
		})
		return
	}
	response.RespondOK(c, gin.H{"settings": rec, "directives": directives, "persisted": true})
}

// POST /api/accessibility/reset
func (h *AccessibilityHandler) Reset(c *gin.Context) {
	sessionID, identity, ok := sessionIdentity(c)
	if !ok {
		return
	}
	sp := h.sessions.Get(sessionID)
	rec, directives := h.settings.Reset(c.Request.Context(), sp, identity)
	response.RespondOK(c, gin.H{"settings": rec, "directives": directives})
}

// GET /api/accessibility/chart-colors?mode=deuteranopia&count=5
// Without an explicit mode the session's own color-vision setting is used.
func (h *AccessibilityHandler) ChartColors(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	mode := c.Query("mode")
	if mode == "" {
		sp := h.sessions.Get(sessionID)
		mode = sp.Snapshot().ColorVisionMode
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "8"))
	if err != nil || count < 1 {
		response.RespondError(c, http.StatusBadRequest, "invalid_count",
			errors.New("count must be a positive integer"))
		return
	}
	response.RespondOK(c, gin.H{
		"mode":   services.NormalizeColorVision(mode),
		"colors": h.styles.ChartColors(mode, count),
	})
}
