package services

import (
	"fmt"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/types"
)

// Directive is one rendering instruction for the client. Directives are
// emitted in a fixed order so later ones override earlier ones the same
// way a stylesheet cascade would.
type Directive struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

const (
	DirectiveTextScale     = "text_scale"
	DirectiveLoginScale    = "login_text_scale"
	DirectiveReadingFont   = "reading_font"
	DirectiveDarkMode      = "dark_mode"
	DirectiveHighContrast  = "high_contrast"
	DirectiveColorVision   = "color_vision"
	DirectiveConcentration = "concentration"
	DirectiveFocusRing     = "focus_ring"
)

// Chart palettes per color-vision mode, eight colors each, applied to
// series in order and cycled when a chart has more series.
var colorVisionPalettes = map[string][]string{
	ColorVisionProtanopia: {
		"#FFB800", "#7B2D8E", "#0066CC", "#00CCCC",
		"#CC9900", "#003366", "#9966CC", "#FFCC00",
	},
	ColorVisionDeuteranopia: {
		"#FF6600", "#0055AA", "#CC0066", "#00AACC",
		"#996600", "#003355", "#FF9933", "#6699CC",
	},
	ColorVisionTritanopia: {
		"#CC3300", "#009933", "#990000", "#996600",
		"#006600", "#663300", "#FF6633", "#339966",
	},
}

var defaultPalette = []string{
	"#1F77B4", "#FF7F0E", "#2CA02C", "#D62728",
	"#9467BD", "#8C564B", "#E377C2", "#7F7F7F",
}

// StyleService turns a preference snapshot into client directives.
type StyleService interface {
	Render(rec types.PreferenceRecord) []Directive
	PaletteFor(mode string) []string
	ChartColors(mode string, seriesCount int) []string
}

type styleService struct {
	log *logger.Logger
}

func NewStyleService(log *logger.Logger) StyleService {
	return &styleService{log: log.With("service", "styles")}
}

// Render emits directives in cascade order: base text scale, login-page
// scale only when it differs from 100, reading accommodations, then the
// color modes with high contrast layered on top of dark mode so its
// variant wins, then attention modes.
func (s *styleService) Render(rec types.PreferenceRecord) []Directive {
	out := make([]Directive, 0, 8)

	out = append(out, Directive{
		Kind:   DirectiveTextScale,
		Params: map[string]string{"percent": fmt.Sprintf("%d", rec.TextScale)},
	})
	if rec.TextScaleLogin != 100 {
		out = append(out, Directive{
			Kind:   DirectiveLoginScale,
			Params: map[string]string{"percent": fmt.Sprintf("%d", rec.TextScaleLogin)},
		})
	}
	if rec.DyslexiaFont {
		out = append(out, Directive{
			Kind: DirectiveReadingFont,
			Params: map[string]string{
				"letter_spacing": fmt.Sprintf("%.3fem", rec.LetterSpacing),
				"word_spacing":   fmt.Sprintf("%.3fem", rec.WordSpacing),
				"line_height":    fmt.Sprintf("%.2f", rec.LineSpacing),
			},
		})
	}
	if rec.DarkMode {
		out = append(out, Directive{Kind: DirectiveDarkMode})
	}
	if rec.HighContrast {
		variant := "light"
		if rec.DarkMode {
			variant = "dark"
		}
		out = append(out, Directive{
			Kind:   DirectiveHighContrast,
			Params: map[string]string{"variant": variant},
		})
	}
	if mode := NormalizeColorVision(rec.ColorVisionMode); mode != ColorVisionNone {
		out = append(out, Directive{
			Kind:   DirectiveColorVision,
			Params: map[string]string{"mode": mode},
		})
	}
	if rec.ConcentrationMode {
		out = append(out, Directive{Kind: DirectiveConcentration})
	}
	if rec.FocusHighlight {
		out = append(out, Directive{Kind: DirectiveFocusRing})
	}
	return out
}

func (s *styleService) PaletteFor(mode string) []string {
	if p, ok := colorVisionPalettes[NormalizeColorVision(mode)]; ok {
		return p
	}
	return defaultPalette
}

// ChartColors assigns one color per series, cycling the palette when the
// chart has more series than the palette has entries.
func (s *styleService) ChartColors(mode string, seriesCount int) []string {
	if seriesCount <= 0 {
		return nil
	}
	palette := s.PaletteFor(mode)
	out := make([]string, seriesCount)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}
