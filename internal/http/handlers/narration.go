package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/http/response"
	"github.com/edupulse/a11y-backend/internal/services"
)

type NarrationHandler struct {
	sessions  services.SessionStore
	narration services.NarrationService
	hover     *services.HoverCoordinator
	voices    *services.VoiceRegistry
}

func NewNarrationHandler(sessions services.SessionStore, narration services.NarrationService, hover *services.HoverCoordinator, voices *services.VoiceRegistry) *NarrationHandler {
	return &NarrationHandler{
		sessions:  sessions,
		narration: narration,
		hover:     hover,
		voices:    voices,
	}
}

// POST /api/narration/speak
func (h *NarrationHandler) Speak(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Text  string `json:"text"`
		Force bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sp := h.sessions.Get(sessionID)
	if err := h.narration.Speak(c.Request.Context(), sp, req.Text, req.Force); err != nil {
		respondServiceError(c, "speak_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"speaking": sp.Speaking()})
}

// POST /api/narration/table
func (h *NarrationHandler) ReadTable(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var table services.TableData
	if err := c.ShouldBindJSON(&table); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sp := h.sessions.Get(sessionID)
	if err := h.narration.ReadTable(c.Request.Context(), sp, table); err != nil {
		respondServiceError(c, "read_table_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"speaking": sp.Speaking()})
}

// POST /api/narration/describe/chart
func (h *NarrationHandler) DescribeChart(c *gin.Context) {
	var req struct {
		Kind  string             `json:"kind"`
		Title string             `json:"title"`
		Alt   string             `json:"alt"`
		Stats map[string]float64 `json:"stats"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"text": h.narration.DescribeChart(req.Kind, req.Title, req.Alt, req.Stats)})
}

// POST /api/narration/describe/dropdown
func (h *NarrationHandler) DescribeDropdown(c *gin.Context) {
	var req struct {
		Label    string   `json:"label"`
		Options  []string `json:"options"`
		Selected string   `json:"selected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"text": h.narration.DescribeDropdown(req.Label, req.Options, req.Selected)})
}

// POST /api/narration/describe/button
func (h *NarrationHandler) DescribeButton(c *gin.Context) {
	var req struct {
		Label string `json:"label"`
		State string `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"text": h.narration.DescribeButton(req.Label, req.State)})
}

// POST /api/narration/describe/control
func (h *NarrationHandler) DescribeControl(c *gin.Context) {
	var req struct {
		Kind  string `json:"kind"`
		Label string `json:"label"`
		State string `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"text": h.narration.DescribeControl(req.Kind, req.Label, req.State)})
}

// POST /api/narration/stop
func (h *NarrationHandler) Stop(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	sp := h.sessions.Get(sessionID)
	if err := h.narration.Stop(c.Request.Context(), sp); err != nil {
		respondServiceError(c, "stop_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"speaking": false})
}

// POST /api/narration/hover
func (h *NarrationHandler) Hover(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var el services.Element
	if err := c.ShouldBindJSON(&el); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sp := h.sessions.Get(sessionID)
	h.hover.HandleEvent(c.Request.Context(), sp, el)
	c.Status(http.StatusAccepted)
}

// POST /api/narration/panel
func (h *NarrationHandler) PanelVisibility(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sp := h.sessions.Get(sessionID)
	h.hover.PanelVisibility(c.Request.Context(), sp, req.Visible)
	c.Status(http.StatusAccepted)
}

// GET /api/narration/voices
func (h *NarrationHandler) GetVoices(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"voices": h.voices.Get(sessionID).Voices()})
}

// POST /api/narration/voices
// The client reports its synthesizer's voices after they become
// available; selection blocks briefly on this report.
func (h *NarrationHandler) ReportVoices(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Voices []services.Voice `json:"voices"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.voices.Get(sessionID).SetVoices(req.Voices)
	response.RespondOK(c, gin.H{"count": len(req.Voices)})
}

// POST /api/narration/playback
func (h *NarrationHandler) Playback(c *gin.Context) {
	sessionID, _, ok := sessionIdentity(c)
	if !ok {
		return
	}
	var req struct {
		UtteranceID string `json:"utterance_id"`
		Status      string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	switch req.Status {
	case services.PlaybackStarted, services.PlaybackEnded, services.PlaybackError:
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_status",
			errors.New("status must be started, ended or error"))
		return
	}
	utteranceID, _ := uuid.Parse(req.UtteranceID)
	sp := h.sessions.Get(sessionID)
	h.narration.HandlePlayback(sp, utteranceID, req.Status)
	response.RespondOK(c, gin.H{"speaking": sp.Speaking()})
}
