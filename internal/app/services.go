package app

import (
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
	"github.com/edupulse/a11y-backend/internal/realtime/bus"
	"github.com/edupulse/a11y-backend/internal/services"
)

type Services struct {
	Sessions   services.SessionStore
	Preference services.PreferenceService
	Styles     services.StyleService
	Settings   services.SettingsService
	Narration  services.NarrationService
	Hover      *services.HoverCoordinator
	Voices     *services.VoiceRegistry
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, hub *realtime.SSEHub, b bus.Bus) Services {
	log.Info("Wiring services...")

	sessions := services.NewSessionStore(log)
	preference := services.NewPreferenceService(reposet.Preference, log)
	styles := services.NewStyleService(log)

	voices := services.NewVoiceRegistry(cfg.VoiceAwaitTimeout, log)
	channel := services.NewSSESpeechChannel(hub, b, log)
	fallback := services.NewHTTPFallbackSynthesizer(hub, b, log)
	narration := services.NewNarrationService(channel, fallback,
		func(sessionID uuid.UUID) *services.VoiceCatalog { return voices.Get(sessionID) }, log)
	hover := services.NewHoverCoordinator(cfg.Hover, narration, log)

	settings := services.NewSettingsService(preference, styles, hub, b, narration, log)

	return Services{
		Sessions:   sessions,
		Preference: preference,
		Styles:     styles,
		Settings:   settings,
		Narration:  narration,
		Hover:      hover,
		Voices:     voices,
	}
}
