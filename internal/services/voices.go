package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

// Voice describes one synthesizer voice reported by a client.
type Voice struct {
	Name    string `json:"name"`
	Locale  string `json:"locale"`
	Default bool   `json:"default"`
}

const defaultVoiceLocale = "es-ES"

// VoiceCatalog holds the voices a session's client has reported. The
// list arrives asynchronously after the page loads, so selection waits a
// bounded time for the first report before falling back.
type VoiceCatalog struct {
	mu     sync.Mutex
	voices []Voice
	ready  chan struct{}
	once   sync.Once

	awaitTimeout time.Duration
	log          *logger.Logger
}

func NewVoiceCatalog(awaitTimeout time.Duration, log *logger.Logger) *VoiceCatalog {
	if awaitTimeout <= 0 {
		awaitTimeout = time.Second
	}
	return &VoiceCatalog{
		ready:        make(chan struct{}),
		awaitTimeout: awaitTimeout,
		log:          log.With("service", "voices"),
	}
}

// SetVoices replaces the catalog and unblocks any pending selection.
func (c *VoiceCatalog) SetVoices(voices []Voice) {
	c.mu.Lock()
	c.voices = make([]Voice, len(voices))
	copy(c.voices, voices)
	c.mu.Unlock()
	c.once.Do(func() { close(c.ready) })
}

func (c *VoiceCatalog) Voices() []Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Select picks a voice for the wanted locale: exact locale match first,
// then any voice sharing the language prefix, then the platform default
// voice, then the first voice at all. An empty catalog after the await
// window returns no voice and the client uses its own default.
func (c *VoiceCatalog) Select(ctx context.Context, wanted string) (Voice, bool) {
	select {
	case <-c.ready:
	case <-time.After(c.awaitTimeout):
		c.log.Debug("voice catalog not reported in time, selecting from what we have")
	case <-ctx.Done():
		return Voice{}, false
	}

	wanted = strings.TrimSpace(wanted)
	if wanted == "" {
		wanted = defaultVoiceLocale
	}
	lang := languageOf(wanted)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.voices) == 0 {
		return Voice{}, false
	}
	for _, v := range c.voices {
		if strings.EqualFold(v.Locale, wanted) {
			return v, true
		}
	}
	for _, v := range c.voices {
		if strings.EqualFold(languageOf(v.Locale), lang) {
			return v, true
		}
	}
	for _, v := range c.voices {
		if v.Default {
			return v, true
		}
	}
	return c.voices[0], true
}

func languageOf(locale string) string {
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		return locale[:i]
	}
	return locale
}
