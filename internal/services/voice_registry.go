package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

// VoiceRegistry keeps one voice catalog per session.
type VoiceRegistry struct {
	mu           sync.Mutex
	catalogs     map[uuid.UUID]*VoiceCatalog
	awaitTimeout time.Duration
	log          *logger.Logger
}

func NewVoiceRegistry(awaitTimeout time.Duration, log *logger.Logger) *VoiceRegistry {
	return &VoiceRegistry{
		catalogs:     make(map[uuid.UUID]*VoiceCatalog),
		awaitTimeout: awaitTimeout,
		log:          log,
	}
}

func (r *VoiceRegistry) Get(sessionID uuid.UUID) *VoiceCatalog {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.catalogs[sessionID]
	if !ok {
		c = NewVoiceCatalog(r.awaitTimeout, r.log)
		r.catalogs[sessionID] = c
	}
	return c
}

func (r *VoiceRegistry) Drop(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.catalogs, sessionID)
}
