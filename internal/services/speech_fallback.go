package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/apierr"
	"github.com/edupulse/a11y-backend/internal/pkg/envutil"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
	"github.com/edupulse/a11y-backend/internal/realtime/bus"
)

// FallbackSynthesizer produces a playable audio clip for sessions whose
// client cannot synthesize locally. The clip URL is pushed over SSE and
// the client plays it with a plain audio element.
type FallbackSynthesizer interface {
	SynthesizeClip(ctx context.Context, sessionID uuid.UUID, u Utterance) error
	Enabled() bool
}

type clipResponse struct {
	URL        string `json:"url"`
	DurationMs int    `json:"duration_ms"`
}

// httpFallbackSynthesizer calls an external TTS HTTP service and forwards
// the resulting clip URL to the session.
type httpFallbackSynthesizer struct {
	client  *resty.Client
	baseURL string
	hub     *realtime.SSEHub
	bus     bus.Bus
	log     *logger.Logger
}

func NewHTTPFallbackSynthesizer(hub *realtime.SSEHub, b bus.Bus, log *logger.Logger) FallbackSynthesizer {
	log = log.With("service", "speech_fallback")
	baseURL := envutil.GetEnv("TTS_FALLBACK_URL", "", log)
	timeout := envutil.GetEnvAsInt("TTS_FALLBACK_TIMEOUT_MS", 8000, log)

	client := resty.New().
		SetTimeout(time.Duration(timeout) * time.Millisecond).
		SetRetryCount(1)
	if key := envutil.GetEnv("TTS_FALLBACK_API_KEY", "", log); key != "" {
		client.SetHeader("Authorization", "Bearer "+key)
	}
	return &httpFallbackSynthesizer{
		client:  client,
		baseURL: baseURL,
		hub:     hub,
		bus:     b,
		log:     log,
	}
}

func (f *httpFallbackSynthesizer) Enabled() bool { return f.baseURL != "" }

func (f *httpFallbackSynthesizer) SynthesizeClip(ctx context.Context, sessionID uuid.UUID, u Utterance) error {
	if !f.Enabled() {
		return apierr.New(409, "SPEECH_UNSUPPORTED", apierr.ErrSpeechUnsupported)
	}
	var clip clipResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"text":   u.Text,
			"locale": u.VoiceLocale,
			"rate":   u.Rate,
		}).
		SetResult(&clip).
		Post(f.baseURL + "/v1/synthesize")
	if err != nil {
		f.log.Warn("fallback synthesis request failed", "error", err.Error())
		return apierr.New(502, "SPEECH_PLAYBACK", errors.Join(apierr.ErrSpeechPlayback, err))
	}
	if resp.IsError() {
		f.log.Warn("fallback synthesis rejected", "status", resp.StatusCode())
		return apierr.New(502, "SPEECH_PLAYBACK",
			fmt.Errorf("%w: synthesizer returned %d", apierr.ErrSpeechPlayback, resp.StatusCode()))
	}

	msg := realtime.SSEMessage{
		Channel: realtime.SessionChannel(sessionID),
		Event:   realtime.SSEEventNarrationClip,
		Data: map[string]any{
			"utterance_id": u.ID.String(),
			"url":          clip.URL,
			"duration_ms":  clip.DurationMs,
		},
	}
	if f.bus != nil {
		return f.bus.Publish(ctx, msg)
	}
	f.hub.Broadcast(msg)
	return nil
}
