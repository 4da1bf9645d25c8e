package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/apierr"
)

func TestNormalizeNarration(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  hello   world  ", "hello world"},
		{"50% complete", "50 complete"},
		{"Ready? Yes, go!", "Ready? Yes, go!"},
		{"<b>bold</b>", "bboldb"},
		{"***", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeNarration(tc.in); got != tc.want {
			t.Fatalf("NormalizeNarration(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSpeakDisabledIsNoop(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := NewSessionPrefs(uuid.New()) // tts disabled by default

	if err := svc.Speak(context.Background(), sp, "hello", false); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(channel.utterances()) != 0 {
		t.Fatalf("disabled narration dispatched an utterance")
	}
}

func TestSpeakEmptyAfterNormalizationIsNoop(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)

	if err := svc.Speak(context.Background(), sp, "@#$%", false); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(channel.utterances()) != 0 {
		t.Fatalf("empty text dispatched an utterance")
	}
	if sp.LastSpoken() != "" {
		t.Fatalf("noop speak updated last spoken")
	}
}

func TestSpeakDeduplicatesRepeats(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)
	ctx := context.Background()

	if err := svc.Speak(ctx, sp, "progress chart", false); err != nil {
		t.Fatalf("first speak: %v", err)
	}
	if err := svc.Speak(ctx, sp, "progress  chart", false); err != nil {
		t.Fatalf("repeat speak: %v", err)
	}
	if got := len(channel.utterances()); got != 1 {
		t.Fatalf("utterances = %d, want 1 (repeat deduplicated after normalization)", got)
	}

	// force bypasses deduplication.
	if err := svc.Speak(ctx, sp, "progress chart", true); err != nil {
		t.Fatalf("forced speak: %v", err)
	}
	if got := len(channel.utterances()); got != 2 {
		t.Fatalf("utterances = %d, want 2 after force", got)
	}
}

func TestSpeakCancelsCurrentPlayback(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)
	ctx := context.Background()

	if err := svc.Speak(ctx, sp, "first", false); err != nil {
		t.Fatalf("first speak: %v", err)
	}
	if channel.cancelCount() != 0 {
		t.Fatalf("idle session should not be cancelled")
	}
	if err := svc.Speak(ctx, sp, "second", false); err != nil {
		t.Fatalf("second speak: %v", err)
	}
	if channel.cancelCount() != 1 {
		t.Fatalf("cancels = %d, want 1", channel.cancelCount())
	}
}

func TestStopClearsLastSpoken(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)
	ctx := context.Background()

	if err := svc.Speak(ctx, sp, "announcement", false); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if err := svc.Stop(ctx, sp); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sp.Speaking() || sp.LastSpoken() != "" {
		t.Fatalf("stop did not clear narration state")
	}

	// The same text is speakable again after stop.
	if err := svc.Speak(ctx, sp, "announcement", false); err != nil {
		t.Fatalf("re-speak: %v", err)
	}
	if got := len(channel.utterances()); got != 2 {
		t.Fatalf("utterances = %d, want 2", got)
	}
}

func TestSpeakDispatchFailureWrapsPlaybackError(t *testing.T) {
	channel := newFakeSpeechChannel()
	channel.speakErr = errors.New("socket closed")
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)

	err := svc.Speak(context.Background(), sp, "unreachable", false)
	if err == nil {
		t.Fatalf("dispatch failure returned nil")
	}
	if !errors.Is(err, apierr.ErrSpeechPlayback) {
		t.Fatalf("error does not carry the playback sentinel: %v", err)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusBadGateway || ae.Code != "SPEECH_DISPATCH_FAILED" {
		t.Fatalf("unexpected error shape: %v", err)
	}
	if sp.LastSpoken() != "" || sp.Speaking() {
		t.Fatalf("failed dispatch recorded narration state")
	}
}

func TestPlaybackErrorAllowsRetry(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)
	ctx := context.Background()

	if err := svc.Speak(ctx, sp, "fragile", false); err != nil {
		t.Fatalf("speak: %v", err)
	}
	u := channel.utterances()[0]
	svc.HandlePlayback(sp, u.ID, PlaybackError)
	if sp.Speaking() {
		t.Fatalf("playback error left session speaking")
	}

	// The retry of the exact same text must not be deduplicated.
	if err := svc.Speak(ctx, sp, "fragile", false); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := len(channel.utterances()); got != 2 {
		t.Fatalf("utterances = %d, want 2 after retry", got)
	}
}

func TestReadTable(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)

	table := TableData{
		Title:   "Weekly activity",
		Headers: []string{"Student", "Sessions"},
		Rows: [][]string{
			{"Ana", "12"},
			{"Luis", ""},
		},
	}
	if err := svc.ReadTable(context.Background(), sp, table); err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	got := channel.utterances()[0].Text
	for _, want := range []string{"Weekly activity", "Student, Sessions", "Row 1", "Student Ana", "Sessions 12", "Row 2"} {
		if !strings.Contains(got, want) {
			t.Fatalf("narration %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "Sessions .") {
		t.Fatalf("empty cell narrated: %q", got)
	}
}

func TestReadTableLimitTruncates(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)

	table := TableData{
		Headers: []string{"Student"},
		Rows:    [][]string{{"Ana"}, {"Luis"}, {"Marta"}, {"Pedro"}},
		Limit:   2,
	}
	if err := svc.ReadTable(context.Background(), sp, table); err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	got := channel.utterances()[0].Text
	if !strings.Contains(got, "And 2 more rows.") {
		t.Fatalf("truncation notice missing: %q", got)
	}
	if strings.Contains(got, "Marta") || strings.Contains(got, "Row 3") {
		t.Fatalf("rows beyond the limit narrated: %q", got)
	}
}

func TestReadTableEmpty(t *testing.T) {
	channel := newFakeSpeechChannel()
	svc := newTestNarration(t, channel)
	sp := speakingSession(t)

	if err := svc.ReadTable(context.Background(), sp, TableData{Title: "Scores"}); err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got := channel.utterances()[0].Text; !strings.Contains(got, "no rows") {
		t.Fatalf("empty table narration wrong: %q", got)
	}
}

func TestDescribeChartKeywords(t *testing.T) {
	svc := newTestNarration(t, newFakeSpeechChannel())
	got := svc.DescribeChart("", "Score distribution", "", nil)
	if !strings.Contains(got, "Score distribution") || !strings.Contains(got, "distributed across their range") {
		t.Fatalf("keyword description missing: %q", got)
	}
	got = svc.DescribeChart("", "Pareto of error causes", "", nil)
	if !strings.Contains(got, "largest first") {
		t.Fatalf("pareto description missing: %q", got)
	}
	got = svc.DescribeChart("", "Mystery figure", "points grouped by cohort", nil)
	if !strings.Contains(got, "Mystery figure") || !strings.Contains(got, "points grouped by cohort") {
		t.Fatalf("fallback description wrong: %q", got)
	}
	if got := svc.DescribeChart("", "", "", nil); !strings.Contains(got, "no description") {
		t.Fatalf("empty chart description wrong: %q", got)
	}
}

func TestDescribeChartKindOverridesTitle(t *testing.T) {
	svc := newTestNarration(t, newFakeSpeechChannel())

	// A declared kind wins over whatever the title happens to contain.
	got := svc.DescribeChart("histogram", "Trend of grades", "", nil)
	if !strings.Contains(got, "groups values into bins") {
		t.Fatalf("kind ignored: %q", got)
	}
	if strings.Contains(got, "evolves over time") {
		t.Fatalf("title keyword overrode kind: %q", got)
	}

	// Unrecognized kinds are still announced rather than dropped.
	got = svc.DescribeChart("sankey", "Grade flows", "flows between cohorts", nil)
	want := "Chart of type sankey: Grade flows. flows between cohorts"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := svc.DescribeChart("sankey", "", "", nil); got != "Chart of type sankey." {
		t.Fatalf("bare kind described as %q", got)
	}
}

func TestDescribeChartStatsOrder(t *testing.T) {
	svc := newTestNarration(t, newFakeSpeechChannel())
	got := svc.DescribeChart("", "Trend of sessions", "", map[string]float64{
		"count": 42,
		"mean":  7.128,
		"max":   12,
		"min":   1,
		"stdev": 3.3, // unrecognized keys are ignored
	})
	want := "Maximum 12. Minimum 1. Average 7.13. Data points 42."
	if !strings.HasSuffix(got, want) {
		t.Fatalf("stats = %q, want suffix %q", got, want)
	}
	if strings.Contains(got, "stdev") {
		t.Fatalf("unrecognized stat narrated: %q", got)
	}
}

func TestDescribeDropdown(t *testing.T) {
	svc := newTestNarration(t, newFakeSpeechChannel())
	got := svc.DescribeDropdown("Course", []string{"Math", "Science"}, "Math")
	want := "Dropdown: Course, selected Math. Options: Math, Science."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = svc.DescribeDropdown("Year", []string{"2019", "2020", "2021", "2022", "2023", "2024", "2025"}, "")
	if !strings.Contains(got, "and 2 more") {
		t.Fatalf("long option list not truncated: %q", got)
	}
}

func TestDescribeTableSummary(t *testing.T) {
	svc := newTestNarration(t, newFakeSpeechChannel())
	got := svc.DescribeTable(8, 3, "Sorted by score.")
	want := "Table with 8 rows and 3 columns. Sorted by score."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDescribeControls(t *testing.T) {
	svc := newTestNarration(t, newFakeSpeechChannel())
	cases := []struct {
		got  string
		want string
	}{
		{svc.DescribeButton("Save", ""), "Button: Save."},
		{svc.DescribeButton("", ""), "Unlabeled button."},
		{svc.DescribeControl("checkbox", "Dark mode", "checked"), "Checkbox: Dark mode, checked."},
		{svc.DescribeControl("slider", "Speed", "value 1.5"), "Slider: Speed, value 1.5."},
		{svc.DescribeTableCell("Student", "Ana"), "Student: Ana"},
		{svc.DescribeTableCell("", ""), "Empty cell."},
		{svc.DescribeHeading("Reports"), "Heading: Reports"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("got %q, want %q", tc.got, tc.want)
		}
	}
}
