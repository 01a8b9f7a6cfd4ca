// Package transcriber turns raw whisper stream output lines into transcript fragments.
package transcriber

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const DefaultLatestLimit = 200

var ErrNegativeLimit = errors.New("transcriber: negative limit")

var (
	linePattern         = regexp.MustCompile(`\[.*?(\d{2}:\d{2}:\d{2}\.\d{3}).*?\]\s{1,3}(.+)`)
	noisePattern        = regexp.MustCompile(`\[BLANK_AUDIO\]|^\["\s?|"\]$`)
	trailingPunctuation = regexp.MustCompile(`[^\w\s]$`)
)

// Fragment is one parsed line. An empty Text means the line carried nothing worth keeping.
type Fragment struct {
	Text      string
	Timestamp time.Time
	Offset    time.Duration
}

func (f Fragment) Empty() bool {
	return f.Text == ""
}

type Transcriber struct {
	now    func() time.Time
	origin time.Time

	mu         sync.Mutex
	full       strings.Builder
	lastOffset time.Duration
}

type Option func(*Transcriber)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Transcriber) {
		t.now = now
	}
}

func New(opts ...Option) *Transcriber {
	t := &Transcriber{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.origin = t.now()
	return t
}

// Process parses one line of recognizer output. Lines that do not carry a
// bracketed timestamp produce an empty fragment stamped with the current time.
func (t *Transcriber) Process(line string) Fragment {
	offset, text, ok := parseLine(line)
	if !ok {
		return Fragment{Timestamp: t.now()}
	}

	t.mu.Lock()
	t.full.WriteString(text)
	t.lastOffset = offset
	t.mu.Unlock()

	return Fragment{
		Text:      formatText(text),
		Timestamp: t.origin.Add(offset),
		Offset:    offset,
	}
}

// Latest returns at most limit trailing characters of the running transcript.
func (t *Transcriber) Latest(limit int) (string, error) {
	if limit < 0 {
		return "", ErrNegativeLimit
	}
	t.mu.Lock()
	full := []rune(t.full.String())
	t.mu.Unlock()
	if limit >= len(full) {
		return string(full), nil
	}
	return string(full[len(full)-limit:]), nil
}

func (t *Transcriber) FullTranscript() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.full.String()
}

func (t *Transcriber) LastOffset() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastOffset
}

func parseLine(line string) (time.Duration, string, bool) {
	m := linePattern.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return 0, "", false
	}
	offset, err := parseOffset(m[1])
	if err != nil {
		return 0, "", false
	}
	text := noisePattern.ReplaceAllString(m[2], "")
	if trailingPunctuation.MatchString(text) {
		text += " "
	}
	return offset, text, true
}

// parseOffset reads an HH:MM:SS.mmm stream offset.
func parseOffset(s string) (time.Duration, error) {
	clock, millis, found := strings.Cut(s, ".")
	if !found {
		return 0, errors.New("missing milliseconds")
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, errors.New("malformed clock")
	}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, err
		}
		d += time.Duration(n) * units[i]
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	return d + time.Duration(ms)*time.Millisecond, nil
}

func formatText(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	return trimmed + " "
}
