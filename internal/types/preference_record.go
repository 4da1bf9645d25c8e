package types

import (
	"time"

	"github.com/google/uuid"
)

// PreferenceRecord is the durable accessibility configuration for one
// identity. Exactly one row per user; saves are upserts keyed on user_id
// (last write wins). Numeric fields are clamped by the session cache
// before they ever reach this record.
type PreferenceRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`

	// Visual accommodations
	HighContrast      bool    `gorm:"not null;default:false;column:high_contrast" json:"high_contrast"`
	DyslexiaFont      bool    `gorm:"not null;default:false;column:dyslexia_font" json:"dyslexia_font"`
	FocusHighlight    bool    `gorm:"not null;default:false;column:focus_highlight" json:"focus_highlight"`
	TextScale         int     `gorm:"not null;default:100;column:text_scale" json:"text_scale"`
	TextScaleLogin    int     `gorm:"not null;default:100;column:text_scale_login" json:"text_scale_login"`
	DarkMode          bool    `gorm:"not null;default:false;column:dark_mode" json:"dark_mode"`
	ColorVisionMode   string  `gorm:"not null;default:'none';column:color_vision_mode" json:"color_vision_mode"`
	ConcentrationMode bool    `gorm:"not null;default:false;column:concentration_mode" json:"concentration_mode"`
	LetterSpacing     float64 `gorm:"not null;default:0.02;column:letter_spacing" json:"letter_spacing"`
	WordSpacing       float64 `gorm:"not null;default:0;column:word_spacing" json:"word_spacing"`
	LineSpacing       float64 `gorm:"not null;default:1.6;column:line_spacing" json:"line_spacing"`

	// Narration
	TTSEnabled     bool    `gorm:"not null;default:false;column:tts_enabled" json:"tts_enabled"`
	TTSRate        float64 `gorm:"not null;default:1;column:tts_rate" json:"tts_rate"`
	TTSVoiceLocale string  `gorm:"not null;default:'es-ES';column:tts_voice_locale" json:"tts_voice_locale"`
	HoverNarration bool    `gorm:"not null;default:false;column:hover_narration" json:"hover_narration"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PreferenceRecord) TableName() string { return "accessibility_preference" }
