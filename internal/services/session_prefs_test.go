package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestInitDefaultsIdempotent(t *testing.T) {
	sp := NewSessionPrefs(uuid.New())
	sp.Set(FieldTextScale, 130)
	sp.InitDefaults()
	if got := sp.Get(FieldTextScale); got != 130 {
		t.Fatalf("InitDefaults overwrote existing value: got %v, want 130", got)
	}
}

func TestDefaults(t *testing.T) {
	sp := NewSessionPrefs(uuid.New())
	cases := []struct {
		field PrefField
		want  any
	}{
		{FieldTextScale, 100},
		{FieldTextScaleLogin, 100},
		{FieldTTSRate, 1.0},
		{FieldTTSVoiceLocale, "es-ES"},
		{FieldLetterSpacing, 0.02},
		{FieldWordSpacing, 0.0},
		{FieldLineSpacing, 1.6},
		{FieldColorVisionMode, ColorVisionNone},
		{FieldHighContrast, false},
		{FieldTTSEnabled, false},
	}
	for _, tc := range cases {
		if got := sp.Get(tc.field); got != tc.want {
			t.Fatalf("default %s = %v, want %v", tc.field, got, tc.want)
		}
	}
}

func TestSetClampsRanges(t *testing.T) {
	sp := NewSessionPrefs(uuid.New())
	cases := []struct {
		field PrefField
		in    any
		want  any
	}{
		{FieldTextScale, 50, 90},
		{FieldTextScale, 500, 150},
		{FieldTextScale, 120, 120},
		{FieldTextScaleLogin, 90, 100},
		{FieldTTSRate, 0.1, 0.5},
		{FieldTTSRate, 9.0, 2.0},
		{FieldLetterSpacing, -1.0, 0.0},
		{FieldLetterSpacing, 0.5, 0.1},
		{FieldWordSpacing, 0.9, 0.2},
		{FieldLineSpacing, 0.2, 1.0},
		{FieldLineSpacing, 3.0, 2.5},
	}
	for _, tc := range cases {
		sp.Set(tc.field, tc.in)
		if got := sp.Get(tc.field); got != tc.want {
			t.Fatalf("Set(%s, %v) clamped to %v, want %v", tc.field, tc.in, got, tc.want)
		}
	}
}

func TestColorVisionNormalization(t *testing.T) {
	sp := NewSessionPrefs(uuid.New())
	sp.Set(FieldColorVisionMode, "Deuteranopia")
	if got := sp.Get(FieldColorVisionMode); got != ColorVisionDeuteranopia {
		t.Fatalf("got %v", got)
	}
	sp.Set(FieldColorVisionMode, "achromatopsia")
	if got := sp.Get(FieldColorVisionMode); got != ColorVisionNone {
		t.Fatalf("unknown mode should fall back to none, got %v", got)
	}
}

func TestPersistIfChangedDirtyTracking(t *testing.T) {
	log := mustTestLogger(t)
	repo := newFakePreferenceRepo()
	svc := NewPreferenceService(repo, log)
	sp := NewSessionPrefs(uuid.New())
	identity := uuid.New()
	ctx := context.Background()

	// Unchanged field: no write.
	wrote, err := svc.PersistIfChanged(ctx, sp, identity, FieldTextScale)
	if err != nil || wrote {
		t.Fatalf("unchanged field wrote=%v err=%v", wrote, err)
	}

	sp.Set(FieldTextScale, 120)
	wrote, err = svc.PersistIfChanged(ctx, sp, identity, FieldTextScale)
	if err != nil || !wrote {
		t.Fatalf("changed field wrote=%v err=%v", wrote, err)
	}
	if repo.upsertCount() != 1 {
		t.Fatalf("upserts = %d, want 1", repo.upsertCount())
	}

	// Same value again: shadow advanced, no second write.
	wrote, err = svc.PersistIfChanged(ctx, sp, identity, FieldTextScale)
	if err != nil || wrote {
		t.Fatalf("repeat persist wrote=%v err=%v", wrote, err)
	}

	// Set back to a different value then back again: value differs from
	// shadow, so it writes.
	sp.Set(FieldTextScale, 100)
	wrote, _ = svc.PersistIfChanged(ctx, sp, identity, FieldTextScale)
	if !wrote {
		t.Fatalf("reverting value should persist")
	}
}

func TestPersistIfChangedFailureKeepsDirty(t *testing.T) {
	log := mustTestLogger(t)
	repo := newFakePreferenceRepo()
	svc := NewPreferenceService(repo, log)
	sp := NewSessionPrefs(uuid.New())
	identity := uuid.New()
	ctx := context.Background()

	sp.Set(FieldDarkMode, true)
	repo.fail = true
	if _, err := svc.PersistIfChanged(ctx, sp, identity, FieldDarkMode); err == nil {
		t.Fatalf("expected store error")
	}

	// Store recovers; the field is still dirty and persists now.
	repo.fail = false
	wrote, err := svc.PersistIfChanged(ctx, sp, identity, FieldDarkMode)
	if err != nil || !wrote {
		t.Fatalf("after recovery wrote=%v err=%v", wrote, err)
	}
}

func TestAnonymousNeverPersists(t *testing.T) {
	log := mustTestLogger(t)
	repo := newFakePreferenceRepo()
	svc := NewPreferenceService(repo, log)
	sp := NewSessionPrefs(uuid.New())
	ctx := context.Background()

	sp.Set(FieldHighContrast, true)
	wrote, err := svc.PersistIfChanged(ctx, sp, uuid.Nil, FieldHighContrast)
	if err != nil || wrote {
		t.Fatalf("anonymous persist wrote=%v err=%v", wrote, err)
	}
	if repo.upsertCount() != 0 {
		t.Fatalf("anonymous session reached the store")
	}
}

func TestLoadForIdentityHydratesAndMarksLoaded(t *testing.T) {
	log := mustTestLogger(t)
	repo := newFakePreferenceRepo()
	svc := NewPreferenceService(repo, log)
	identity := uuid.New()

	stored := defaultRecord()
	stored.UserID = identity
	stored.TextScale = 140
	stored.TTSEnabled = true
	repo.rows[identity] = stored

	sp := NewSessionPrefs(uuid.New())
	if err := svc.LoadForIdentity(context.Background(), sp, identity); err != nil {
		t.Fatalf("LoadForIdentity: %v", err)
	}
	if !sp.IsLoaded() {
		t.Fatalf("session not marked loaded")
	}
	if got := sp.Get(FieldTextScale); got != 140 {
		t.Fatalf("text scale = %v, want 140", got)
	}
	if !sp.TTSEnabled() {
		t.Fatalf("tts not hydrated")
	}
}

func TestLoadForIdentityStoreFailureStillLoaded(t *testing.T) {
	log := mustTestLogger(t)
	repo := newFakePreferenceRepo()
	repo.fail = true
	svc := NewPreferenceService(repo, log)
	sp := NewSessionPrefs(uuid.New())

	err := svc.LoadForIdentity(context.Background(), sp, uuid.New())
	if err == nil {
		t.Fatalf("expected degraded load to report the store error")
	}
	if !sp.IsLoaded() {
		t.Fatalf("failed load must still mark the session loaded")
	}
	if got := sp.Get(FieldTextScale); got != 100 {
		t.Fatalf("defaults expected after failed load, got %v", got)
	}
}

func TestIdentitySwitchResets(t *testing.T) {
	log := mustTestLogger(t)
	repo := newFakePreferenceRepo()
	svc := NewPreferenceService(repo, log)
	ctx := context.Background()

	first := uuid.New()
	stored := defaultRecord()
	stored.UserID = first
	stored.DarkMode = true
	repo.rows[first] = stored

	sp := NewSessionPrefs(uuid.New())
	sp.SetLastSpoken("welcome back")
	if err := svc.LoadForIdentity(ctx, sp, first); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if got := sp.Get(FieldDarkMode); got != true {
		t.Fatalf("first identity not hydrated")
	}

	// A different account takes over the same session.
	second := uuid.New()
	if err := svc.LoadForIdentity(ctx, sp, second); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got := sp.Get(FieldDarkMode); got != false {
		t.Fatalf("first identity's preferences leaked into the second")
	}
	if sp.LastSpoken() != "welcome back" {
		t.Fatalf("transient narration state should survive the switch")
	}
	if sp.LastIdentity() != second {
		t.Fatalf("last identity not updated")
	}
}

func TestResetToDefaultsPreserves(t *testing.T) {
	sp := NewSessionPrefs(uuid.New())
	sp.Set(FieldTextScale, 150)
	sp.Set(FieldTTSEnabled, true)
	sp.SetLastSpoken("hello")
	sp.SetSpeaking(true)

	sp.ResetToDefaults(FieldSpeaking, FieldLastSpoken)

	if got := sp.Get(FieldTextScale); got != 100 {
		t.Fatalf("text scale not reset, got %v", got)
	}
	if sp.TTSEnabled() {
		t.Fatalf("tts not reset")
	}
	if sp.LastSpoken() != "hello" || !sp.Speaking() {
		t.Fatalf("preserved transient fields were reset")
	}
}

func TestSessionStoreReturnsSameInstance(t *testing.T) {
	store := NewSessionStore(mustTestLogger(t))
	id := uuid.New()
	a := store.Get(id)
	b := store.Get(id)
	if a != b {
		t.Fatalf("same session ID returned different caches")
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
	store.Drop(id)
	if store.Len() != 0 {
		t.Fatalf("drop did not remove session")
	}
}
