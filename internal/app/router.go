package app

import (
	apphttp "github.com/edupulse/a11y-backend/internal/http"
	"github.com/edupulse/a11y-backend/internal/observability"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, handlerset Handlers, mw Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		AuthMiddleware: mw.Auth,
		TracingEnabled: observability.Enabled(),

		AccessibilityHandler: handlerset.Accessibility,
		NarrationHandler:     handlerset.Narration,
		RealtimeHandler:      handlerset.Realtime,
		HealthHandler:        handlerset.Health,
	})
}
