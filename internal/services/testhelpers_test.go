package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/types"
	"gorm.io/gorm"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// fakePreferenceRepo is an in-memory PreferenceRepo.
type fakePreferenceRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]types.PreferenceRecord
	upserts int
	fail    bool
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{rows: make(map[uuid.UUID]types.PreferenceRecord)}
}

func (f *fakePreferenceRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PreferenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	rec, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (f *fakePreferenceRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.PreferenceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.upserts++
	f.rows[rec.UserID] = *rec
	return nil
}

func (f *fakePreferenceRepo) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

// fakeSpeechChannel records dispatched utterances and cancels.
type fakeSpeechChannel struct {
	mu        sync.Mutex
	spoken    []Utterance
	cancels   int
	speakErr  error
	supported bool
}

func newFakeSpeechChannel() *fakeSpeechChannel {
	return &fakeSpeechChannel{supported: true}
}

func (f *fakeSpeechChannel) Speak(ctx context.Context, sessionID uuid.UUID, u Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, u)
	return nil
}

func (f *fakeSpeechChannel) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeSpeechChannel) Supported(sessionID uuid.UUID) bool { return f.supported }

func (f *fakeSpeechChannel) utterances() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Utterance, len(f.spoken))
	copy(out, f.spoken)
	return out
}

func (f *fakeSpeechChannel) cancelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancels
}

func newTestNarration(t *testing.T, channel *fakeSpeechChannel) NarrationService {
	t.Helper()
	return NewNarrationService(channel, nil,
		func(uuid.UUID) *VoiceCatalog { return nil }, mustTestLogger(t))
}

func speakingSession(t *testing.T) *SessionPrefs {
	t.Helper()
	sp := NewSessionPrefs(uuid.New())
	sp.Set(FieldTTSEnabled, true)
	sp.Set(FieldHoverNarration, true)
	return sp
}
