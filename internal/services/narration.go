package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/apierr"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

// Narration text is cleaned before speaking: anything outside word
// characters, whitespace and basic punctuation is dropped, then runs of
// whitespace collapse to one space.
var (
	narrationDropRe     = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?-]`)
	narrationCollapseRe = regexp.MustCompile(`\s+`)
)

// NormalizeNarration prepares raw UI text for synthesis.
func NormalizeNarration(text string) string {
	text = narrationDropRe.ReplaceAllString(text, "")
	text = narrationCollapseRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TableData is the tabular payload the read-table operation narrates.
// Limit caps how many data rows are read out; zero means all of them.
type TableData struct {
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Limit   int        `json:"limit,omitempty"`
}

// PlaybackStatus values reported back by the client.
const (
	PlaybackStarted = "started"
	PlaybackEnded   = "ended"
	PlaybackError   = "error"
)

// NarrationService owns the speak/stop lifecycle and the descriptive
// templates for dashboard widgets.
type NarrationService interface {
	// Speak runs the full dispatch contract: disabled and empty text are
	// quiet no-ops, repeats of the last spoken text are deduplicated
	// unless force is set, and any current playback is cancelled before
	// the new utterance goes out.
	Speak(ctx context.Context, sp *SessionPrefs, text string, force bool) error

	// Stop cancels playback and clears the last-spoken record so the
	// same text can be requested again afterwards.
	Stop(ctx context.Context, sp *SessionPrefs) error

	// Cancel halts playback without touching last-spoken. Identity
	// switches and logout cancel this way because their resets preserve
	// the transient narration state.
	Cancel(ctx context.Context, sp *SessionPrefs) error

	// HandlePlayback processes a client playback callback. A playback
	// error clears last-spoken so a retry of the same text is not
	// swallowed by deduplication.
	HandlePlayback(sp *SessionPrefs, utteranceID uuid.UUID, status string)

	// ReadTable narrates a table: title, column headers, then each row
	// with values prefixed by their column header.
	ReadTable(ctx context.Context, sp *SessionPrefs, table TableData) error

	DescribeChart(kind, title, alt string, stats map[string]float64) string
	DescribeButton(label, state string) string
	DescribeDropdown(label string, options []string, selected string) string
	DescribeTable(rows, columns int, note string) string
	DescribeControl(kind, label, state string) string
	DescribeTableCell(columnHeader, value string) string
	DescribeHeading(text string) string
}

type narrationService struct {
	channel  SpeechChannel
	fallback FallbackSynthesizer
	voices   func(sessionID uuid.UUID) *VoiceCatalog
	log      *logger.Logger
}

func NewNarrationService(channel SpeechChannel, fallback FallbackSynthesizer, voices func(uuid.UUID) *VoiceCatalog, log *logger.Logger) NarrationService {
	return &narrationService{
		channel:  channel,
		fallback: fallback,
		voices:   voices,
		log:      log.With("service", "narration"),
	}
}

func (s *narrationService) Speak(ctx context.Context, sp *SessionPrefs, text string, force bool) error {
	if !sp.TTSEnabled() {
		return nil
	}
	text = NormalizeNarration(text)
	if text == "" {
		return nil
	}
	if !force && text == sp.LastSpoken() {
		return nil
	}
	sessionID := sp.SessionID()
	if sp.Speaking() {
		if err := s.channel.Cancel(ctx, sessionID); err != nil {
			s.log.Warn("cancel before speak failed", "session_id", sessionID.String(), "error", err.Error())
		}
	}

	u := Utterance{
		ID:          uuid.New(),
		Text:        text,
		Rate:        sp.TTSRate(),
		VoiceLocale: sp.TTSVoiceLocale(),
	}
	if catalog := s.voices(sessionID); catalog != nil {
		if v, ok := catalog.Select(ctx, u.VoiceLocale); ok {
			u.VoiceName = v.Name
			u.VoiceLocale = v.Locale
		}
	}

	err := s.channel.Speak(ctx, sessionID, u)
	if err != nil && s.fallback != nil && s.fallback.Enabled() {
		s.log.Info("speech channel unavailable, using fallback clip",
			"session_id", sessionID.String())
		err = s.fallback.SynthesizeClip(ctx, sessionID, u)
	}
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apierr.New(http.StatusBadGateway, "SPEECH_DISPATCH_FAILED",
			errors.Join(apierr.ErrSpeechPlayback, err))
	}
	// Recorded at dispatch; a playback-error callback clears it again.
	sp.SetLastSpoken(text)
	sp.SetSpeaking(true)
	return nil
}

func (s *narrationService) Stop(ctx context.Context, sp *SessionPrefs) error {
	sp.SetLastSpoken("")
	return s.Cancel(ctx, sp)
}

func (s *narrationService) Cancel(ctx context.Context, sp *SessionPrefs) error {
	sp.SetSpeaking(false)
	return s.channel.Cancel(ctx, sp.SessionID())
}

func (s *narrationService) HandlePlayback(sp *SessionPrefs, utteranceID uuid.UUID, status string) {
	switch status {
	case PlaybackStarted:
		sp.SetSpeaking(true)
	case PlaybackEnded:
		sp.SetSpeaking(false)
	case PlaybackError:
		sp.SetSpeaking(false)
		sp.SetLastSpoken("")
		s.log.Warn("client playback error",
			"session_id", sp.SessionID().String(), "utterance_id", utteranceID.String())
	}
}

func (s *narrationService) ReadTable(ctx context.Context, sp *SessionPrefs, table TableData) error {
	var b strings.Builder
	if table.Title != "" {
		fmt.Fprintf(&b, "Table: %s. ", table.Title)
	}
	if len(table.Headers) > 0 {
		fmt.Fprintf(&b, "Columns: %s. ", strings.Join(table.Headers, ", "))
	}
	rows := table.Rows
	truncated := 0
	if table.Limit > 0 && len(rows) > table.Limit {
		truncated = len(rows) - table.Limit
		rows = rows[:table.Limit]
	}
	for i, row := range rows {
		fmt.Fprintf(&b, "Row %d: ", i+1)
		parts := make([]string, 0, len(row))
		for j, cell := range row {
			if cell == "" {
				continue
			}
			if j < len(table.Headers) && table.Headers[j] != "" {
				parts = append(parts, table.Headers[j]+" "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(". ")
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "And %d more rows. ", truncated)
	}
	if len(table.Rows) == 0 {
		b.WriteString("The table has no rows. ")
	}
	return s.Speak(ctx, sp, b.String(), true)
}

// Long-form chart descriptions. The reported chart kind is matched
// first; when no kind is given the lowercased title is scanned for the
// same keywords.
var chartDescriptions = []struct {
	keyword string
	text    string
}{
	{"distribution", "This chart shows how the values are distributed across their range."},
	{"pareto", "This chart ranks categories by contribution, largest first, with a cumulative line."},
	{"scatter", "This chart plots individual observations as points on two axes."},
	{"histogram", "This chart groups values into bins and shows how many fall in each."},
	{"control", "This chart tracks a measure over time against its control limits."},
	{"trend", "This chart shows how the measure evolves over time."},
}

// Recognized stat keys, appended in this order; anything else is ignored.
var chartStatOrder = []struct{ key, label string }{
	{"max", "Maximum"},
	{"min", "Minimum"},
	{"mean", "Average"},
	{"count", "Data points"},
}

func (s *narrationService) DescribeChart(kind, title, alt string, stats map[string]float64) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	title = strings.TrimSpace(title)

	desc := ""
	for _, d := range chartDescriptions {
		if kind != "" && strings.Contains(kind, d.keyword) {
			desc = d.text
			break
		}
	}
	if desc == "" && title != "" {
		lower := strings.ToLower(title)
		for _, d := range chartDescriptions {
			if strings.Contains(lower, d.keyword) {
				desc = d.text
				break
			}
		}
	}

	var b strings.Builder
	switch {
	case desc != "" && title != "":
		fmt.Fprintf(&b, "Chart: %s. %s", title, desc)
	case desc != "":
		b.WriteString("Chart. " + desc)
	case kind != "" && title != "":
		fmt.Fprintf(&b, "Chart of type %s: %s.", kind, title)
		if alt != "" {
			b.WriteString(" " + alt)
		}
	case kind != "":
		b.WriteString("Chart of type " + kind + ".")
		if alt != "" {
			b.WriteString(" " + alt)
		}
	case title != "" && alt != "":
		fmt.Fprintf(&b, "Chart: %s. %s", title, alt)
	case title != "":
		b.WriteString("Chart: " + title)
	case alt != "":
		b.WriteString("Chart. " + alt)
	default:
		b.WriteString("Chart with no description available.")
	}
	for _, st := range chartStatOrder {
		if v, ok := stats[st.key]; ok {
			fmt.Fprintf(&b, " %s %s.", st.label, formatStat(v))
		}
	}
	return b.String()
}

func formatStat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// DescribeDropdown reads the first few options so a long list does not
// turn into a minute of narration.
const dropdownOptionLimit = 5

func (s *narrationService) DescribeDropdown(label string, options []string, selected string) string {
	label = strings.TrimSpace(label)
	var b strings.Builder
	b.WriteString("Dropdown")
	if label != "" {
		b.WriteString(": " + label)
	}
	if selected != "" {
		b.WriteString(", selected " + selected)
	}
	b.WriteString(".")
	if len(options) > 0 {
		shown := options
		more := 0
		if len(shown) > dropdownOptionLimit {
			more = len(shown) - dropdownOptionLimit
			shown = shown[:dropdownOptionLimit]
		}
		b.WriteString(" Options: " + strings.Join(shown, ", "))
		if more > 0 {
			fmt.Fprintf(&b, " and %d more", more)
		}
		b.WriteString(".")
	}
	return b.String()
}

func (s *narrationService) DescribeTable(rows, columns int, note string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table with %d rows and %d columns.", rows, columns)
	if note = strings.TrimSpace(note); note != "" {
		b.WriteString(" " + note)
	}
	return b.String()
}

func (s *narrationService) DescribeButton(label, state string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "Unlabeled button."
	}
	if state != "" {
		return fmt.Sprintf("Button: %s, %s.", label, state)
	}
	return "Button: " + label + "."
}

// DescribeControl narrates form controls with their state so a listener
// knows both what the control is and where it stands.
func (s *narrationService) DescribeControl(kind, label, state string) string {
	label = strings.TrimSpace(label)
	var b strings.Builder
	switch kind {
	case "checkbox":
		b.WriteString("Checkbox")
	case "toggle":
		b.WriteString("Toggle")
	case "slider":
		b.WriteString("Slider")
	case "radio":
		b.WriteString("Radio option")
	case "dropdown":
		b.WriteString("Dropdown")
	case "input":
		b.WriteString("Input field")
	default:
		b.WriteString("Control")
	}
	if label != "" {
		b.WriteString(": ")
		b.WriteString(label)
	}
	if state != "" {
		b.WriteString(", ")
		b.WriteString(state)
	}
	b.WriteString(".")
	return b.String()
}

func (s *narrationService) DescribeTableCell(columnHeader, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Empty cell."
	}
	if columnHeader != "" {
		return columnHeader + ": " + value
	}
	return value
}

func (s *narrationService) DescribeHeading(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return "Heading: " + text
}
