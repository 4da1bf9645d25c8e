package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/edupulse/a11y-backend/internal/db"
	apphttp "github.com/edupulse/a11y-backend/internal/http"
	"github.com/edupulse/a11y-backend/internal/observability"
	"github.com/edupulse/a11y-backend/internal/pkg/envutil"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
	"github.com/edupulse/a11y-backend/internal/realtime/bus"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Hub      *realtime.SSEHub
	Bus      bus.Bus

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "a11y-backend",
		Environment: envutil.GetEnv("APP_ENV", "development", log),
		Version:     envutil.GetEnv("APP_VERSION", "dev", log),
	})

	dbService, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	hub := realtime.NewSSEHub(log)

	// Redis fan-out is optional: without REDIS_ADDR events are delivered
	// to local streams only, which is fine for a single instance.
	var eventBus bus.Bus
	if os.Getenv("REDIS_ADDR") != "" {
		eventBus, err = bus.NewRedisBus(log)
		if err != nil {
			log.Warn("redis bus init failed, continuing single-instance", "error", err.Error())
			eventBus = nil
		}
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, cfg, reposet, hub, eventBus)
	handlerset := wireHandlers(log, serviceset, hub)
	mw := wireMiddleware(log, cfg)
	server := wireServer(log, handlerset, mw)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Hub:          hub,
		Bus:          eventBus,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background pieces: the bus forwarder pushing remote
// events into the local hub.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Bus != nil {
		if err := a.Bus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			a.Log.Warn("bus forwarder failed to start", "error", err.Error())
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("bus close failed", "error", err.Error())
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err.Error())
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
