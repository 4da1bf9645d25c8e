package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/edupulse/a11y-backend/internal/http/handlers"
	httpMW "github.com/edupulse/a11y-backend/internal/http/middleware"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	TracingEnabled bool

	AccessibilityHandler *httpH.AccessibilityHandler
	NarrationHandler     *httpH.NarrationHandler
	RealtimeHandler      *httpH.RealtimeHandler
	HealthHandler        *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("a11y-backend"))
	}
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Every API route runs with identity and session resolved;
		// anonymous callers are allowed and simply never persist.
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Attach())
		}

		if cfg.AccessibilityHandler != nil {
			api.POST("/accessibility/apply", cfg.AccessibilityHandler.Apply)
			api.GET("/accessibility/settings", cfg.AccessibilityHandler.GetSettings)
			api.PATCH("/accessibility/settings", cfg.AccessibilityHandler.Patch)
			api.POST("/accessibility/reset", cfg.AccessibilityHandler.Reset)
			api.GET("/accessibility/chart-colors", cfg.AccessibilityHandler.ChartColors)
		}

		if cfg.NarrationHandler != nil {
			api.POST("/narration/speak", cfg.NarrationHandler.Speak)
			api.POST("/narration/table", cfg.NarrationHandler.ReadTable)
			api.POST("/narration/describe/chart", cfg.NarrationHandler.DescribeChart)
			api.POST("/narration/describe/button", cfg.NarrationHandler.DescribeButton)
			api.POST("/narration/describe/dropdown", cfg.NarrationHandler.DescribeDropdown)
			api.POST("/narration/describe/control", cfg.NarrationHandler.DescribeControl)
			api.POST("/narration/stop", cfg.NarrationHandler.Stop)
			api.POST("/narration/hover", cfg.NarrationHandler.Hover)
			api.POST("/narration/panel", cfg.NarrationHandler.PanelVisibility)
			api.GET("/narration/voices", cfg.NarrationHandler.GetVoices)
			api.POST("/narration/voices", cfg.NarrationHandler.ReportVoices)
			api.POST("/narration/playback", cfg.NarrationHandler.Playback)
		}

		if cfg.RealtimeHandler != nil {
			api.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			api.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			api.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}
	}

	return r
}
