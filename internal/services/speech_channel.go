package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/apierr"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
	"github.com/edupulse/a11y-backend/internal/realtime/bus"
)

// Utterance is one synthesis request dispatched to a session's client.
type Utterance struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	Rate        float64   `json:"rate"`
	VoiceName   string    `json:"voice_name,omitempty"`
	VoiceLocale string    `json:"voice_locale"`
}

// SpeechChannel dispatches utterances toward a session. Speak and Cancel
// are fire-and-forget; completion and errors come back through the
// playback callback endpoint.
type SpeechChannel interface {
	Speak(ctx context.Context, sessionID uuid.UUID, u Utterance) error
	Cancel(ctx context.Context, sessionID uuid.UUID) error
	Supported(sessionID uuid.UUID) bool
}

// sseSpeechChannel pushes synthesis events over the session's SSE stream.
// When a redis bus is configured events go through it so any instance can
// reach the instance holding the stream.
type sseSpeechChannel struct {
	hub *realtime.SSEHub
	bus bus.Bus
	log *logger.Logger
}

func NewSSESpeechChannel(hub *realtime.SSEHub, b bus.Bus, log *logger.Logger) SpeechChannel {
	return &sseSpeechChannel{
		hub: hub,
		bus: b,
		log: log.With("service", "speech_channel"),
	}
}

func (c *sseSpeechChannel) publish(ctx context.Context, msg realtime.SSEMessage) error {
	if c.bus != nil {
		return c.bus.Publish(ctx, msg)
	}
	c.hub.Broadcast(msg)
	return nil
}

func (c *sseSpeechChannel) Speak(ctx context.Context, sessionID uuid.UUID, u Utterance) error {
	if !c.Supported(sessionID) && c.bus == nil {
		return apierr.New(409, "SPEECH_UNSUPPORTED", apierr.ErrSpeechUnsupported)
	}
	return c.publish(ctx, realtime.SSEMessage{
		Channel: realtime.SessionChannel(sessionID),
		Event:   realtime.SSEEventNarrationSpeak,
		Data: map[string]any{
			"utterance_id": u.ID.String(),
			"text":         u.Text,
			"rate":         u.Rate,
			"voice_name":   u.VoiceName,
			"voice_locale": u.VoiceLocale,
		},
	})
}

func (c *sseSpeechChannel) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	return c.publish(ctx, realtime.SSEMessage{
		Channel: realtime.SessionChannel(sessionID),
		Event:   realtime.SSEEventNarrationCancel,
		Data:    map[string]any{},
	})
}

// Supported reports whether this instance has a live stream for the
// session. With a bus the stream may live on another instance, so callers
// treat false as unknown rather than unsupported.
func (c *sseSpeechChannel) Supported(sessionID uuid.UUID) bool {
	return c.hub.HasListeners(realtime.SessionChannel(sessionID))
}
