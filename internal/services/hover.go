package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/envutil"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

// Element is the hovered node as reported by the client.
type Element struct {
	Role         string            `json:"role"`
	DirectText   string            `json:"direct_text"`
	AncestorText string            `json:"ancestor_text,omitempty"`
	Region       string            `json:"region,omitempty"`
	Attrs        map[string]string `json:"attrs,omitempty"`
}

const (
	RegionSidebar = "sidebar"

	maxAncestorChars = 100
	minGenericChars  = 3
	maxGenericChars  = 500
)

// HoverConfig tunes the debounce and burst behavior.
type HoverConfig struct {
	DebounceMain    time.Duration
	DebounceSidebar time.Duration
	BurstWindow     time.Duration
	BurstThreshold  int
	SuppressFor     time.Duration
}

func LoadHoverConfig(log *logger.Logger) HoverConfig {
	return HoverConfig{
		DebounceMain:    time.Duration(envutil.GetEnvAsInt("HOVER_DEBOUNCE_MS", 300, log)) * time.Millisecond,
		DebounceSidebar: time.Duration(envutil.GetEnvAsInt("HOVER_DEBOUNCE_SIDEBAR_MS", 800, log)) * time.Millisecond,
		BurstWindow:     time.Duration(envutil.GetEnvAsInt("HOVER_BURST_WINDOW_MS", 100, log)) * time.Millisecond,
		BurstThreshold:  envutil.GetEnvAsInt("HOVER_BURST_THRESHOLD", 3, log),
		SuppressFor:     time.Duration(envutil.GetEnvAsInt("HOVER_SUPPRESS_MS", 2000, log)) * time.Millisecond,
	}
}

const (
	hoverIdle = iota
	hoverDebouncing
	hoverSuppressed
)

// hoverSession carries one session's coordinator state. The timer fires
// at most one narration per settle; a new event while debouncing replaces
// the pending element and restarts the wait.
type hoverSession struct {
	mu          sync.Mutex
	state       int
	pending     *Element
	timer       *time.Timer
	recent      []time.Time
	suppressEnd time.Time
	introSpoken bool
}

// HoverCoordinator turns a stream of hover events into at most one
// narration per settled hover, with burst suppression so sweeping the
// pointer across the page stays quiet.
type HoverCoordinator struct {
	cfg       HoverConfig
	narration NarrationService
	log       *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*hoverSession
}

func NewHoverCoordinator(cfg HoverConfig, narration NarrationService, log *logger.Logger) *HoverCoordinator {
	return &HoverCoordinator{
		cfg:       cfg,
		narration: narration,
		log:       log.With("service", "hover"),
		sessions:  make(map[uuid.UUID]*hoverSession),
	}
}

func (h *HoverCoordinator) session(id uuid.UUID) *hoverSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	hs, ok := h.sessions[id]
	if !ok {
		hs = &hoverSession{}
		h.sessions[id] = hs
	}
	return hs
}

// Drop discards the session's hover state, stopping any pending settle.
func (h *HoverCoordinator) Drop(id uuid.UUID) {
	h.mu.Lock()
	hs, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	hs.mu.Lock()
	hs.pending = nil
	if hs.timer != nil {
		hs.timer.Stop()
		hs.timer = nil
	}
	hs.mu.Unlock()
}

// HandleEvent ingests one hover event for the session.
func (h *HoverCoordinator) HandleEvent(ctx context.Context, sp *SessionPrefs, el Element) {
	if !sp.TTSEnabled() || !sp.HoverEnabled() {
		return
	}
	hs := h.session(sp.SessionID())
	hs.mu.Lock()
	defer hs.mu.Unlock()

	now := time.Now()
	if el.Region == RegionSidebar {
		// The cooldown drops nav-region events only; the rest of the
		// page keeps narrating normally.
		if now.Before(hs.suppressEnd) {
			return
		}
		if hs.state == hoverSuppressed {
			hs.state = hoverIdle
		}
		// Burst detection: more than the threshold of nav events inside
		// the window means the pointer is sweeping, not reading.
		hs.recent = append(hs.recent, now)
		cutoff := now.Add(-h.cfg.BurstWindow)
		for len(hs.recent) > 0 && hs.recent[0].Before(cutoff) {
			hs.recent = hs.recent[1:]
		}
		if len(hs.recent) > h.cfg.BurstThreshold {
			hs.state = hoverSuppressed
			hs.suppressEnd = now.Add(h.cfg.SuppressFor)
			hs.recent = hs.recent[:0]
			if hs.pending != nil && hs.pending.Region == RegionSidebar {
				hs.pending = nil
				if hs.timer != nil {
					hs.timer.Stop()
					hs.timer = nil
				}
			}
			return
		}
	}

	elCopy := el
	hs.pending = &elCopy
	hs.state = hoverDebouncing
	debounce := h.cfg.DebounceMain
	if el.Region == RegionSidebar {
		debounce = h.cfg.DebounceSidebar
	}
	if hs.timer != nil {
		hs.timer.Stop()
	}
	hs.timer = time.AfterFunc(debounce, func() {
		h.settle(sp, hs, &elCopy)
	})
}

func (h *HoverCoordinator) settle(sp *SessionPrefs, hs *hoverSession, el *Element) {
	hs.mu.Lock()
	if hs.pending != el {
		// A later event replaced this target; its own timer owns the
		// settle for it.
		hs.mu.Unlock()
		return
	}
	hs.pending = nil
	hs.timer = nil
	if hs.state == hoverDebouncing {
		hs.state = hoverIdle
	}
	suppressed := el.Region == RegionSidebar && time.Now().Before(hs.suppressEnd)
	hs.mu.Unlock()

	if suppressed {
		return
	}
	text := h.Resolve(*el)
	if text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.narration.Speak(ctx, sp, text, false); err != nil {
		h.log.Debug("hover narration dropped", "error", err.Error())
	}
}

// PanelVisibility handles the navigation panel intro: the intro is spoken
// once each time the panel goes from hidden to visible.
func (h *HoverCoordinator) PanelVisibility(ctx context.Context, sp *SessionPrefs, visible bool) {
	hs := h.session(sp.SessionID())
	hs.mu.Lock()
	speak := false
	if visible && !hs.introSpoken {
		hs.introSpoken = true
		speak = true
	} else if !visible {
		hs.introSpoken = false
	}
	hs.mu.Unlock()

	if speak && sp.TTSEnabled() {
		intro := "Navigation panel. Use these options to move between dashboard sections."
		if err := h.narration.Speak(ctx, sp, intro, true); err != nil {
			h.log.Debug("panel intro dropped", "error", err.Error())
		}
	}
}

// Resolve maps an element to its narration text by role. Unknown roles
// fall back to the generic text rule, with the ancestor text used only
// when the element itself has nothing useful and the ancestor is short
// enough not to read out a whole container.
func (h *HoverCoordinator) Resolve(el Element) string {
	direct := strings.TrimSpace(el.DirectText)
	attr := func(k string) string { return strings.TrimSpace(el.Attrs[k]) }

	switch el.Role {
	case "heading":
		return h.narration.DescribeHeading(direct)
	case "button":
		state := ""
		switch {
		case attr("expanded") == "true":
			state = "expanded"
		case attr("expanded") == "false":
			state = "collapsed"
		case attr("pressed") == "true":
			state = "pressed"
		}
		label := direct
		if label == "" {
			label = attr("label")
		}
		if attr("purpose") == "nav-collapse" {
			if state == "" {
				return "Button that expands or collapses the navigation panel."
			}
			return "Button that expands or collapses the navigation panel, " + state + "."
		}
		return h.narration.DescribeButton(label, state)
	case "link":
		if direct == "" {
			return ""
		}
		return "Link: " + direct + "."
	case "input":
		return h.narration.DescribeControl("input", attr("label"), attr("value"))
	case "dropdown":
		state := ""
		if v := attr("value"); v != "" {
			state = "selected " + v
		}
		return h.narration.DescribeControl("dropdown", attr("label"), state)
	case "checkbox", "toggle", "radio":
		state := "unchecked"
		if attr("checked") == "true" {
			state = "checked"
		}
		label := attr("label")
		if label == "" {
			label = direct
		}
		return h.narration.DescribeControl(el.Role, label, state)
	case "slider":
		return h.narration.DescribeControl("slider", attr("label"), "value "+attr("value"))
	case "cell":
		return h.narration.DescribeTableCell(attr("column"), direct)
	case "table":
		if s := attr("summary"); s != "" {
			return "Table: " + s
		}
		if rows := attr("rows"); rows != "" {
			return "Table with " + rows + " rows."
		}
		return "Table."
	case "img", "chart":
		return h.narration.DescribeChart(attr("kind"), attr("title"), attr("alt"), nil)
	}

	if genericReadable(direct) {
		return direct
	}
	ancestor := strings.TrimSpace(el.AncestorText)
	if direct == "" && len([]rune(ancestor)) < maxAncestorChars && genericReadable(ancestor) {
		return ancestor
	}
	return ""
}

// genericReadable applies the plain-text rule: between 3 and 500
// characters with at least one letter or digit.
func genericReadable(text string) bool {
	n := len([]rune(text))
	if n < minGenericChars || n > maxGenericChars {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
