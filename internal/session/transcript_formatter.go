package session

import (
	"fmt"
	"strings"
	"time"
)

// time.DateTime is deliberately not used so the layout can change independently.
const transcriptTimeLayout = "2006-01-02 15:04:05"

func (s Summary) Duration() time.Duration {
	d := s.EndedAt.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Elapsed is the offset of a line from the session start, never negative.
func (s Summary) Elapsed(line Line) time.Duration {
	d := line.SpokenAt.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// TranscriptFilename is the attachment name used when a transcript leaves the
// machine.
func TranscriptFilename(name string) string {
	return fmt.Sprintf("transcript-%s.txt", name)
}

// FormatTranscript renders a summary as a plain text document: a short header
// followed by one "HH:MM:SS text" line per transcript line.
func FormatTranscript(s Summary, loc *time.Location) []byte {
	loc = safeLocation(loc)
	lines := []string{
		fmt.Sprintf("Session: %s", s.Name),
		fmt.Sprintf("Period: %s ~ %s (%s)",
			s.StartedAt.In(loc).Format(transcriptTimeLayout),
			s.EndedAt.In(loc).Format(transcriptTimeLayout),
			loc.String()),
		fmt.Sprintf("Lines: %d", len(s.Lines)),
		"",
	}
	for _, line := range s.Lines {
		lines = append(lines, fmt.Sprintf("%s %s", FormatElapsedHMS(s.Elapsed(line)), strings.TrimSpace(line.Text)))
	}
	return []byte(strings.Join(lines, "\n"))
}

func FormatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func safeLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
