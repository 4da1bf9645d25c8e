package app

import (
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/http/handlers"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
)

type Handlers struct {
	Accessibility *handlers.AccessibilityHandler
	Narration     *handlers.NarrationHandler
	Realtime      *handlers.RealtimeHandler
	Health        *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	evict := func(sessionID uuid.UUID) {
		serviceset.Hover.Drop(sessionID)
		serviceset.Voices.Drop(sessionID)
		serviceset.Sessions.Drop(sessionID)
	}
	return Handlers{
		Accessibility: handlers.NewAccessibilityHandler(serviceset.Sessions, serviceset.Settings, serviceset.Styles),
		Narration:     handlers.NewNarrationHandler(serviceset.Sessions, serviceset.Narration, serviceset.Hover, serviceset.Voices),
		Realtime:      handlers.NewRealtimeHandler(log, hub, evict),
		Health:        handlers.NewHealthHandler(),
	}
}
