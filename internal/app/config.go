package app

import (
	"time"

	"github.com/edupulse/a11y-backend/internal/pkg/envutil"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/services"
)

type Config struct {
	JWTSecretKey string
	Port         string

	VoiceAwaitTimeout time.Duration
	Hover             services.HoverConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey: envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Port:         envutil.GetEnv("PORT", "8080", log),
		VoiceAwaitTimeout: time.Duration(
			envutil.GetEnvAsInt("VOICE_AWAIT_TIMEOUT_MS", 1000, log)) * time.Millisecond,
		Hover: services.LoadHoverConfig(log),
	}
}
