package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/realtime"
	"github.com/edupulse/a11y-backend/internal/realtime/bus"
	"github.com/edupulse/a11y-backend/internal/types"
)

// SettingsPatch carries a partial preference update. Absent keys leave
// their fields untouched; explicit null resets the field to its default.
type SettingsPatch struct {
	HighContrast      OptionalBool    `json:"high_contrast"`
	DyslexiaFont      OptionalBool    `json:"dyslexia_font"`
	FocusHighlight    OptionalBool    `json:"focus_highlight"`
	TextScale         OptionalInt     `json:"text_scale"`
	TextScaleLogin    OptionalInt     `json:"text_scale_login"`
	DarkMode          OptionalBool    `json:"dark_mode"`
	ColorVisionMode   OptionalString  `json:"color_vision_mode"`
	ConcentrationMode OptionalBool    `json:"concentration_mode"`
	LetterSpacing     OptionalFloat64 `json:"letter_spacing"`
	WordSpacing       OptionalFloat64 `json:"word_spacing"`
	LineSpacing       OptionalFloat64 `json:"line_spacing"`
	TTSEnabled        OptionalBool    `json:"tts_enabled"`
	TTSRate           OptionalFloat64 `json:"tts_rate"`
	TTSVoiceLocale    OptionalString  `json:"tts_voice_locale"`
	HoverNarration    OptionalBool    `json:"hover_narration"`
}

// SettingsService applies preference changes, persists them for signed-in
// identities, and notifies the session's clients of the new styling.
type SettingsService interface {
	// Load ensures the session cache reflects the identity's stored
	// preferences and returns the current snapshot with its directives.
	Load(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) (types.PreferenceRecord, []Directive)

	// Apply is the page-load entry point: it hydrates the session for the
	// identity and broadcasts the resulting styling to the session's
	// clients.
	Apply(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) (types.PreferenceRecord, []Directive, error)

	// Patch folds a partial update into the session and persists each
	// changed field. The style broadcast goes out even when persistence
	// fails; the save outcome is reported as its own event.
	Patch(ctx context.Context, sp *SessionPrefs, identity uuid.UUID, patch SettingsPatch) (types.PreferenceRecord, []Directive, error)

	// Reset restores the session cache to defaults on logout and
	// re-broadcasts styles. The store is left alone: the identity's saved
	// preferences survive and rehydrate the next sign-in.
	Reset(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) (types.PreferenceRecord, []Directive)
}

type settingsService struct {
	prefs     PreferenceService
	styles    StyleService
	hub       *realtime.SSEHub
	bus       bus.Bus
	narration NarrationService
	log       *logger.Logger
}

func NewSettingsService(prefs PreferenceService, styles StyleService, hub *realtime.SSEHub, b bus.Bus, narration NarrationService, log *logger.Logger) SettingsService {
	return &settingsService{
		prefs:     prefs,
		styles:    styles,
		hub:       hub,
		bus:       b,
		narration: narration,
		log:       log.With("service", "settings"),
	}
}

func (s *settingsService) Load(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) (types.PreferenceRecord, []Directive) {
	if err := s.loadForIdentity(ctx, sp, identity); err != nil {
		s.log.Warn("load for identity degraded", "error", err.Error())
	}
	rec := sp.Snapshot()
	return rec, s.styles.Render(rec)
}

// patchField pairs an Optional value with the field it targets.
type patchField struct {
	field PrefField
	set   bool
	value any
}

func (p SettingsPatch) fields() []patchField {
	opt := func(f PrefField, set bool, v any) patchField {
		return patchField{field: f, set: set, value: v}
	}
	deref := func(v any) any {
		switch t := v.(type) {
		case *bool:
			if t != nil {
				return *t
			}
		case *int:
			if t != nil {
				return *t
			}
		case *float64:
			if t != nil {
				return *t
			}
		case *string:
			if t != nil {
				return *t
			}
		}
		return nil
	}
	return []patchField{
		opt(FieldHighContrast, p.HighContrast.Set, deref(p.HighContrast.Value)),
		opt(FieldDyslexiaFont, p.DyslexiaFont.Set, deref(p.DyslexiaFont.Value)),
		opt(FieldFocusHighlight, p.FocusHighlight.Set, deref(p.FocusHighlight.Value)),
		opt(FieldTextScale, p.TextScale.Set, deref(p.TextScale.Value)),
		opt(FieldTextScaleLogin, p.TextScaleLogin.Set, deref(p.TextScaleLogin.Value)),
		opt(FieldDarkMode, p.DarkMode.Set, deref(p.DarkMode.Value)),
		opt(FieldColorVisionMode, p.ColorVisionMode.Set, deref(p.ColorVisionMode.Value)),
		opt(FieldConcentrationMode, p.ConcentrationMode.Set, deref(p.ConcentrationMode.Value)),
		opt(FieldLetterSpacing, p.LetterSpacing.Set, deref(p.LetterSpacing.Value)),
		opt(FieldWordSpacing, p.WordSpacing.Set, deref(p.WordSpacing.Value)),
		opt(FieldLineSpacing, p.LineSpacing.Set, deref(p.LineSpacing.Value)),
		opt(FieldTTSEnabled, p.TTSEnabled.Set, deref(p.TTSEnabled.Value)),
		opt(FieldTTSRate, p.TTSRate.Set, deref(p.TTSRate.Value)),
		opt(FieldTTSVoiceLocale, p.TTSVoiceLocale.Set, deref(p.TTSVoiceLocale.Value)),
		opt(FieldHoverNarration, p.HoverNarration.Set, deref(p.HoverNarration.Value)),
	}
}

func (s *settingsService) Apply(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) (types.PreferenceRecord, []Directive, error) {
	err := s.loadForIdentity(ctx, sp, identity)
	if err != nil {
		s.log.Warn("apply running on defaults, store degraded", "error", err.Error())
	}
	rec := sp.Snapshot()
	directives := s.styles.Render(rec)
	s.broadcastStyles(ctx, sp.SessionID(), directives)
	return rec, directives, err
}

func (s *settingsService) Patch(ctx context.Context, sp *SessionPrefs, identity uuid.UUID, patch SettingsPatch) (types.PreferenceRecord, []Directive, error) {
	if err := s.loadForIdentity(ctx, sp, identity); err != nil {
		s.log.Warn("load before patch degraded", "error", err.Error())
	}

	def := defaultRecord()
	var persistErr error
	speechTouched := false
	for _, f := range patch.fields() {
		if !f.set {
			continue
		}
		value := f.value
		if value == nil {
			value = getRecordField(&def, f.field)
		}
		sp.Set(f.field, value)
		switch f.field {
		case FieldTTSEnabled, FieldTTSRate, FieldTTSVoiceLocale:
			speechTouched = true
		}
		if _, err := s.prefs.PersistIfChanged(ctx, sp, identity, f.field); err != nil {
			persistErr = err
		}
	}

	rec := sp.Snapshot()
	directives := s.styles.Render(rec)
	s.broadcastStyles(ctx, sp.SessionID(), directives)
	s.broadcastSaveOutcome(ctx, sp.SessionID(), identity, persistErr)
	s.announceSpeechChange(ctx, sp, speechTouched)
	return rec, directives, persistErr
}

// announceSpeechChange reads a short confirmation at the new rate and
// voice so the listener can judge the change without leaving the panel.
func (s *settingsService) announceSpeechChange(ctx context.Context, sp *SessionPrefs, touched bool) {
	if !touched || s.narration == nil || !sp.TTSEnabled() {
		return
	}
	if err := s.narration.Speak(ctx, sp, "Narration settings updated.", true); err != nil {
		s.log.Warn("settings confirmation narration failed", "error", err.Error())
	}
}

func (s *settingsService) Reset(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) (types.PreferenceRecord, []Directive) {
	s.cancelNarration(ctx, sp)
	sp.ResetToDefaults(FieldSpeaking, FieldLastSpoken)
	sp.markLoaded(identity)

	rec := sp.Snapshot()
	directives := s.styles.Render(rec)
	s.broadcastStyles(ctx, sp.SessionID(), directives)
	return rec, directives
}

func (s *settingsService) cancelNarration(ctx context.Context, sp *SessionPrefs) {
	if s.narration == nil {
		return
	}
	if err := s.narration.Cancel(ctx, sp); err != nil {
		s.log.Warn("narration cancel failed", "error", err.Error())
	}
}

// loadForIdentity hydrates the session for the identity, cancelling any
// in-flight narration first when a different account takes over.
func (s *settingsService) loadForIdentity(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) error {
	if sp.IsLoaded() && sp.LastIdentity() != identity {
		s.cancelNarration(ctx, sp)
	}
	return s.prefs.LoadForIdentity(ctx, sp, identity)
}

func (s *settingsService) broadcastStyles(ctx context.Context, sessionID uuid.UUID, directives []Directive) {
	msg := realtime.SSEMessage{
		Channel: realtime.SessionChannel(sessionID),
		Event:   realtime.SSEEventStyleChanged,
		Data:    map[string]any{"directives": directives},
	}
	s.publish(ctx, msg)
}

func (s *settingsService) broadcastSaveOutcome(ctx context.Context, sessionID, identity uuid.UUID, persistErr error) {
	if identity == uuid.Nil {
		return
	}
	event := realtime.SSEEventSettingsSaved
	data := map[string]any{}
	if persistErr != nil {
		event = realtime.SSEEventSettingsSaveFailed
		data["reason"] = "store_unavailable"
	}
	s.publish(ctx, realtime.SSEMessage{
		Channel: realtime.SessionChannel(sessionID),
		Event:   event,
		Data:    data,
	})
}

func (s *settingsService) publish(ctx context.Context, msg realtime.SSEMessage) {
	if s.bus != nil {
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn("bus publish failed, delivering locally", "error", err.Error())
			s.hub.Broadcast(msg)
		}
		return
	}
	s.hub.Broadcast(msg)
}
