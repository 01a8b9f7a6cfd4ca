package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	RepositoryDriverNone     = "none"
	RepositoryDriverSQLite   = "sqlite"
	RepositoryDriverPostgres = "postgres"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

type Config struct {
	Env       string
	LogFormat string
	Debug     bool

	CacheDir string

	WhisperModel        string
	WhisperBinary       string
	WhisperThreads      int
	WhisperStepMs       int
	WhisperLengthMs     int
	WhisperKeepMs       int
	WhisperVADThreshold float64
	WhisperCaptureID    int
	WhisperLanguage     string

	AnnounceTranscription bool
	StopGracePeriod       time.Duration

	RepositoryDriver string
	DatabaseURL      string
	SQLitePath       string

	DiscordToken     string
	DiscordChannelID string

	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	TranscriptWebhookURL string
	RelayTimeout         time.Duration
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	for _, pos := range c.positiveFieldChecks() {
		if pos.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", pos.name, pos.value)
		}
	}
	if c.WhisperStepMs < 0 {
		return fmt.Errorf("WHISPER_STEP_MS must not be negative, got %d", c.WhisperStepMs)
	}
	if c.WhisperKeepMs < 0 {
		return fmt.Errorf("WHISPER_KEEP_MS must not be negative, got %d", c.WhisperKeepMs)
	}
	if c.WhisperVADThreshold < 0 || c.WhisperVADThreshold > 1 {
		return fmt.Errorf("WHISPER_VAD_THRESHOLD must be within [0, 1], got %v", c.WhisperVADThreshold)
	}
	if c.StopGracePeriod < 0 {
		return fmt.Errorf("STOP_GRACE_PERIOD must not be negative, got %s", c.StopGracePeriod)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.LogFormat)
	}
	switch c.RepositoryDriver {
	case RepositoryDriverNone, RepositoryDriverSQLite:
	case RepositoryDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when REPOSITORY_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("REPOSITORY_DRIVER must be one of none, sqlite, postgres, got %q", c.RepositoryDriver)
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	if c.MQTTBrokerURL != "" && c.MQTTClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required when MQTT_BROKER_URL is set")
	}
	return nil
}

type requiredField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredField {
	return []requiredField{
		{name: "BUDDY_CACHE_DIR", value: c.CacheDir},
		{name: "WHISPER_MODEL", value: c.WhisperModel},
		{name: "WHISPER_LANGUAGE", value: c.WhisperLanguage},
	}
}

type positiveField struct {
	name  string
	value int
}

func (c *Config) positiveFieldChecks() []positiveField {
	return []positiveField{
		{name: "WHISPER_THREADS", value: c.WhisperThreads},
		{name: "WHISPER_LENGTH_MS", value: c.WhisperLengthMs},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) DebugEnabled() bool {
	return c.Debug || c.IsDevelopment()
}

func (c *Config) SessionsDir() string {
	return filepath.Join(c.CacheDir, "sessions")
}

func (c *Config) WhisperDir() string {
	return filepath.Join(c.CacheDir, "whisper.cpp")
}

func (c *Config) WhisperBinaryPath() string {
	if c.WhisperBinary != "" {
		return c.WhisperBinary
	}
	return filepath.Join(c.WhisperDir(), "build", "bin", "stream")
}

func (c *Config) ModelPath() string {
	return filepath.Join(c.WhisperDir(), "models", "ggml-"+c.WhisperModel+".bin")
}

func (c *Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.CacheDir, "buddy.sqlite")
}

// WhisperArgs is the argument list passed to the whisper stream binary.
func (c *Config) WhisperArgs() []string {
	return []string{
		"-m", c.ModelPath(),
		"-t", strconv.Itoa(c.WhisperThreads),
		"--step", strconv.Itoa(c.WhisperStepMs),
		"--length", strconv.Itoa(c.WhisperLengthMs),
		"--keep", strconv.Itoa(c.WhisperKeepMs),
		"--vad-thold", strconv.FormatFloat(c.WhisperVADThreshold, 'f', -1, 64),
		"--audio-ctx", "0",
		"--keep-context",
		"-c", strconv.Itoa(c.WhisperCaptureID),
		"-l", c.WhisperLanguage,
	}
}

func (c *Config) WhisperCommandLine() string {
	return strings.Join(append([]string{c.WhisperBinaryPath()}, c.WhisperArgs()...), " ")
}
