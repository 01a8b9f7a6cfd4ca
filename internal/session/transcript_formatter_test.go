package session

import (
	"strings"
	"testing"
	"time"
)

func TestFormatTranscript(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	startedAt := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	summary := Summary{
		Info:    Info{Name: "standup", StartedAt: startedAt},
		EndedAt: startedAt.Add(2 * time.Minute),
		Lines: []Line{
			{Text: "Good morning. ", SpokenAt: startedAt.Add(15 * time.Second)},
			{Text: "Let's begin. ", SpokenAt: startedAt.Add(75 * time.Second)},
		},
	}

	body := string(FormatTranscript(summary, loc))

	if !strings.Contains(body, "Session: standup") {
		t.Fatalf("session name not found in body: %s", body)
	}
	if !strings.Contains(body, "Period: 2026-02-28 21:00:00 ~ 2026-02-28 21:02:00 (Asia/Tokyo)") {
		t.Fatalf("period line not found in body: %s", body)
	}
	if !strings.Contains(body, "00:00:15 Good morning.\n") {
		t.Fatalf("first line not found in body: %s", body)
	}
	if !strings.HasSuffix(body, "00:01:15 Let's begin.") {
		t.Fatalf("second line not found in body: %s", body)
	}
}

func TestSummaryElapsedClampsToZero(t *testing.T) {
	startedAt := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	summary := Summary{Info: Info{StartedAt: startedAt}, EndedAt: startedAt.Add(-time.Second)}

	if got := summary.Elapsed(Line{SpokenAt: startedAt.Add(-5 * time.Second)}); got != 0 {
		t.Fatalf("expected zero elapsed, got %s", got)
	}
	if got := summary.Duration(); got != 0 {
		t.Fatalf("expected zero duration, got %s", got)
	}
}

func TestFormatElapsedHMS(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{d: 0, want: "00:00:00"},
		{d: 59 * time.Second, want: "00:00:59"},
		{d: time.Hour + 2*time.Minute + 3*time.Second + 900*time.Millisecond, want: "01:02:03"},
	}
	for _, tc := range cases {
		if got := FormatElapsedHMS(tc.d); got != tc.want {
			t.Fatalf("FormatElapsedHMS(%s) = %s, want %s", tc.d, got, tc.want)
		}
	}
}

func TestTranscriptFilename(t *testing.T) {
	if got := TranscriptFilename("2026-02-28_12-00-00"); got != "transcript-2026-02-28_12-00-00.txt" {
		t.Fatalf("unexpected filename: %s", got)
	}
}
