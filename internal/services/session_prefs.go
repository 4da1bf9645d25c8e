package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/types"
)

// PrefField names one preference of the session cache. The persisted
// fields mirror types.PreferenceRecord columns; the transient fields
// (speaking, last_spoken) exist only in memory and survive resets so a
// reset never un-deduplicates in-flight narration.
type PrefField string

const (
	FieldHighContrast      PrefField = "high_contrast"
	FieldDyslexiaFont      PrefField = "dyslexia_font"
	FieldFocusHighlight    PrefField = "focus_highlight"
	FieldTextScale         PrefField = "text_scale"
	FieldTextScaleLogin    PrefField = "text_scale_login"
	FieldDarkMode          PrefField = "dark_mode"
	FieldColorVisionMode   PrefField = "color_vision_mode"
	FieldConcentrationMode PrefField = "concentration_mode"
	FieldLetterSpacing     PrefField = "letter_spacing"
	FieldWordSpacing       PrefField = "word_spacing"
	FieldLineSpacing       PrefField = "line_spacing"
	FieldTTSEnabled        PrefField = "tts_enabled"
	FieldTTSRate           PrefField = "tts_rate"
	FieldTTSVoiceLocale    PrefField = "tts_voice_locale"
	FieldHoverNarration    PrefField = "hover_narration"

	FieldSpeaking   PrefField = "speaking"
	FieldLastSpoken PrefField = "last_spoken"
)

// PersistedFields lists every field that participates in dirty tracking,
// in record order.
var PersistedFields = []PrefField{
	FieldHighContrast, FieldDyslexiaFont, FieldFocusHighlight,
	FieldTextScale, FieldTextScaleLogin, FieldDarkMode,
	FieldColorVisionMode, FieldConcentrationMode,
	FieldLetterSpacing, FieldWordSpacing, FieldLineSpacing,
	FieldTTSEnabled, FieldTTSRate, FieldTTSVoiceLocale, FieldHoverNarration,
}

// Color-vision modes form a closed set; anything unrecognized is "none".
const (
	ColorVisionNone         = "none"
	ColorVisionProtanopia   = "protanopia"
	ColorVisionDeuteranopia = "deuteranopia"
	ColorVisionTritanopia   = "tritanopia"
)

const (
	minTextScale      = 90
	maxTextScale      = 150
	minTextScaleLogin = 100
	maxTextScaleLogin = 150
	minTTSRate        = 0.5
	maxTTSRate        = 2.0
	minLetterSpacing  = 0.0
	maxLetterSpacing  = 0.1
	minWordSpacing    = 0.0
	maxWordSpacing    = 0.2
	minLineSpacing    = 1.0
	maxLineSpacing    = 2.5
)

func defaultRecord() types.PreferenceRecord {
	return types.PreferenceRecord{
		HighContrast:      false,
		DyslexiaFont:      false,
		FocusHighlight:    false,
		TextScale:         100,
		TextScaleLogin:    100,
		DarkMode:          false,
		ColorVisionMode:   ColorVisionNone,
		ConcentrationMode: false,
		LetterSpacing:     0.02,
		WordSpacing:       0.0,
		LineSpacing:       1.6,
		TTSEnabled:        false,
		TTSRate:           1.0,
		TTSVoiceLocale:    "es-ES",
		HoverNarration:    false,
	}
}

// SessionPrefs is the single source of truth for one session's current
// preferences, with a per-field "last persisted" shadow for dirty
// tracking. Single writer per session; the mutex only guards against the
// handler goroutines of one browser racing each other.
type SessionPrefs struct {
	mu sync.Mutex

	sessionID uuid.UUID
	rec       types.PreferenceRecord
	shadow    map[PrefField]any

	speaking   bool
	lastSpoken string

	loaded       bool
	lastIdentity uuid.UUID

	initialized bool
}

func NewSessionPrefs(sessionID uuid.UUID) *SessionPrefs {
	sp := &SessionPrefs{sessionID: sessionID}
	sp.InitDefaults()
	return sp
}

func (sp *SessionPrefs) SessionID() uuid.UUID { return sp.sessionID }

// InitDefaults populates defaults exactly once; calling it again is a
// no-op so a partial restart never wipes fields that are already set.
func (sp *SessionPrefs) InitDefaults() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.initialized {
		return
	}
	sp.rec = defaultRecord()
	sp.shadow = sp.snapshotShadowLocked()
	sp.initialized = true
}

// ResetToDefaults restores every field except the preserve set. Transient
// narration state (speaking, last_spoken) is preserved by passing those
// fields, which is what logout does.
func (sp *SessionPrefs) ResetToDefaults(preserve ...PrefField) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.resetLocked(preserve...)
}

func (sp *SessionPrefs) resetLocked(preserve ...PrefField) {
	keep := make(map[PrefField]bool, len(preserve))
	for _, f := range preserve {
		keep[f] = true
	}
	def := defaultRecord()
	for _, f := range PersistedFields {
		if keep[f] {
			continue
		}
		setRecordField(&sp.rec, f, getRecordField(&def, f))
	}
	if !keep[FieldSpeaking] {
		sp.speaking = false
	}
	if !keep[FieldLastSpoken] {
		sp.lastSpoken = ""
	}
	sp.shadow = sp.snapshotShadowLocked()
	sp.loaded = false
}

// Set clamps numeric values into their documented ranges and normalizes
// enums before storing; out-of-domain input is corrected, never rejected.
func (sp *SessionPrefs) Set(field PrefField, value any) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	switch field {
	case FieldSpeaking:
		sp.speaking = asBool(value)
	case FieldLastSpoken:
		sp.lastSpoken = asString(value)
	default:
		setRecordField(&sp.rec, field, value)
	}
}

func (sp *SessionPrefs) Get(field PrefField) any {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	switch field {
	case FieldSpeaking:
		return sp.speaking
	case FieldLastSpoken:
		return sp.lastSpoken
	default:
		return getRecordField(&sp.rec, field)
	}
}

// changedSince reports whether the current value differs from the last
// persisted one, and advanceShadow records a successful persist of that
// field. Both are used only by the preference service.
func (sp *SessionPrefs) changedSince(field PrefField) bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return getRecordField(&sp.rec, field) != sp.shadow[field]
}

func (sp *SessionPrefs) advanceShadow(field PrefField) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.shadow[field] = getRecordField(&sp.rec, field)
}

// Snapshot returns a copy of the persisted-shape fields for renderers.
func (sp *SessionPrefs) Snapshot() types.PreferenceRecord {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.rec
}

// hydrate replaces all persisted fields from a stored record, clamping on
// the way in so a corrupted row cannot smuggle out-of-range values into
// the session.
func (sp *SessionPrefs) hydrate(rec *types.PreferenceRecord) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	for _, f := range PersistedFields {
		setRecordField(&sp.rec, f, getRecordField(rec, f))
	}
	sp.shadow = sp.snapshotShadowLocked()
}

func (sp *SessionPrefs) markLoaded(identity uuid.UUID) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.loaded = true
	sp.lastIdentity = identity
}

func (sp *SessionPrefs) IsLoaded() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.loaded
}

func (sp *SessionPrefs) LastIdentity() uuid.UUID {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.lastIdentity
}

// Narration bookkeeping accessors used by the engine.

func (sp *SessionPrefs) TTSEnabled() bool       { return asBool(sp.Get(FieldTTSEnabled)) }
func (sp *SessionPrefs) HoverEnabled() bool     { return asBool(sp.Get(FieldHoverNarration)) }
func (sp *SessionPrefs) TTSRate() float64       { return asFloat(sp.Get(FieldTTSRate)) }
func (sp *SessionPrefs) TTSVoiceLocale() string { return asString(sp.Get(FieldTTSVoiceLocale)) }
func (sp *SessionPrefs) LastSpoken() string     { return asString(sp.Get(FieldLastSpoken)) }
func (sp *SessionPrefs) SetLastSpoken(t string) { sp.Set(FieldLastSpoken, t) }
func (sp *SessionPrefs) SetSpeaking(b bool)     { sp.Set(FieldSpeaking, b) }
func (sp *SessionPrefs) Speaking() bool         { return asBool(sp.Get(FieldSpeaking)) }

func (sp *SessionPrefs) snapshotShadowLocked() map[PrefField]any {
	shadow := make(map[PrefField]any, len(PersistedFields))
	for _, f := range PersistedFields {
		shadow[f] = getRecordField(&sp.rec, f)
	}
	return shadow
}

func setRecordField(rec *types.PreferenceRecord, field PrefField, value any) {
	switch field {
	case FieldHighContrast:
		rec.HighContrast = asBool(value)
	case FieldDyslexiaFont:
		rec.DyslexiaFont = asBool(value)
	case FieldFocusHighlight:
		rec.FocusHighlight = asBool(value)
	case FieldTextScale:
		rec.TextScale = clampInt(asInt(value), minTextScale, maxTextScale)
	case FieldTextScaleLogin:
		rec.TextScaleLogin = clampInt(asInt(value), minTextScaleLogin, maxTextScaleLogin)
	case FieldDarkMode:
		rec.DarkMode = asBool(value)
	case FieldColorVisionMode:
		rec.ColorVisionMode = NormalizeColorVision(asString(value))
	case FieldConcentrationMode:
		rec.ConcentrationMode = asBool(value)
	case FieldLetterSpacing:
		rec.LetterSpacing = clampFloat(asFloat(value), minLetterSpacing, maxLetterSpacing)
	case FieldWordSpacing:
		rec.WordSpacing = clampFloat(asFloat(value), minWordSpacing, maxWordSpacing)
	case FieldLineSpacing:
		rec.LineSpacing = clampFloat(asFloat(value), minLineSpacing, maxLineSpacing)
	case FieldTTSEnabled:
		rec.TTSEnabled = asBool(value)
	case FieldTTSRate:
		rec.TTSRate = clampFloat(asFloat(value), minTTSRate, maxTTSRate)
	case FieldTTSVoiceLocale:
		if v := strings.TrimSpace(asString(value)); v != "" {
			rec.TTSVoiceLocale = v
		}
	case FieldHoverNarration:
		rec.HoverNarration = asBool(value)
	}
}

func getRecordField(rec *types.PreferenceRecord, field PrefField) any {
	switch field {
	case FieldHighContrast:
		return rec.HighContrast
	case FieldDyslexiaFont:
		return rec.DyslexiaFont
	case FieldFocusHighlight:
		return rec.FocusHighlight
	case FieldTextScale:
		return rec.TextScale
	case FieldTextScaleLogin:
		return rec.TextScaleLogin
	case FieldDarkMode:
		return rec.DarkMode
	case FieldColorVisionMode:
		return rec.ColorVisionMode
	case FieldConcentrationMode:
		return rec.ConcentrationMode
	case FieldLetterSpacing:
		return rec.LetterSpacing
	case FieldWordSpacing:
		return rec.WordSpacing
	case FieldLineSpacing:
		return rec.LineSpacing
	case FieldTTSEnabled:
		return rec.TTSEnabled
	case FieldTTSRate:
		return rec.TTSRate
	case FieldTTSVoiceLocale:
		return rec.TTSVoiceLocale
	case FieldHoverNarration:
		return rec.HoverNarration
	default:
		return nil
	}
}

func NormalizeColorVision(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ColorVisionProtanopia:
		return ColorVisionProtanopia
	case ColorVisionDeuteranopia:
		return ColorVisionDeuteranopia
	case ColorVisionTritanopia:
		return ColorVisionTritanopia
	default:
		return ColorVisionNone
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}
