package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/meetingbuddy/internal/config"
)

type envConfig struct {
	Env                   string        `env:"ENV" envDefault:"production"`
	LogFormat             string        `env:"LOG_FORMAT" envDefault:"text"`
	CacheDir              string        `env:"BUDDY_CACHE_DIR"`
	WhisperModel          string        `env:"WHISPER_MODEL" envDefault:"small.en-q5_1"`
	WhisperBinary         string        `env:"WHISPER_BINARY"`
	WhisperThreads        int           `env:"WHISPER_THREADS" envDefault:"8"`
	WhisperStepMs         int           `env:"WHISPER_STEP_MS" envDefault:"0"`
	WhisperLengthMs       int           `env:"WHISPER_LENGTH_MS" envDefault:"5000"`
	WhisperKeepMs         int           `env:"WHISPER_KEEP_MS" envDefault:"500"`
	WhisperVADThreshold   float64       `env:"WHISPER_VAD_THRESHOLD" envDefault:"0.75"`
	WhisperCaptureID      int           `env:"WHISPER_CAPTURE_ID" envDefault:"1"`
	WhisperLanguage       string        `env:"WHISPER_LANGUAGE" envDefault:"en"`
	AnnounceTranscription bool          `env:"ANNOUNCE_TRANSCRIPTION" envDefault:"true"`
	StopGracePeriod       time.Duration `env:"STOP_GRACE_PERIOD" envDefault:"3s"`
	RepositoryDriver      string        `env:"REPOSITORY_DRIVER" envDefault:"none"`
	DatabaseURL           string        `env:"DATABASE_URL"`
	SQLitePath            string        `env:"SQLITE_PATH"`
	DiscordToken          string        `env:"DISCORD_TOKEN"`
	DiscordChannelID      string        `env:"DISCORD_CHANNEL_ID"`
	MQTTBrokerURL         string        `env:"MQTT_BROKER_URL"`
	MQTTClientID          string        `env:"MQTT_CLIENT_ID" envDefault:"meeting-buddy"`
	MQTTUsername          string        `env:"MQTT_USERNAME"`
	MQTTPassword          string        `env:"MQTT_PASSWORD"`
	MQTTTopicPrefix       string        `env:"MQTT_TOPIC_PREFIX" envDefault:"buddy"`
	TranscriptWebhookURL  string        `env:"TRANSCRIPT_WEBHOOK_URL"`
	RelayTimeout          time.Duration `env:"RELAY_TIMEOUT" envDefault:"5s"`
}

// Overrides are command line values that take precedence over the environment.
type Overrides struct {
	Debug        bool
	WhisperModel string
}

// Load reads the environment, applies overrides and validates the result.
func Load(overrides Overrides) (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cacheDir := raw.CacheDir
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".buddy")
	}

	cfg := &internalconfig.Config{
		Env:                   raw.Env,
		LogFormat:             raw.LogFormat,
		Debug:                 overrides.Debug,
		CacheDir:              cacheDir,
		WhisperModel:          raw.WhisperModel,
		WhisperBinary:         raw.WhisperBinary,
		WhisperThreads:        raw.WhisperThreads,
		WhisperStepMs:         raw.WhisperStepMs,
		WhisperLengthMs:       raw.WhisperLengthMs,
		WhisperKeepMs:         raw.WhisperKeepMs,
		WhisperVADThreshold:   raw.WhisperVADThreshold,
		WhisperCaptureID:      raw.WhisperCaptureID,
		WhisperLanguage:       raw.WhisperLanguage,
		AnnounceTranscription: raw.AnnounceTranscription,
		StopGracePeriod:       raw.StopGracePeriod,
		RepositoryDriver:      raw.RepositoryDriver,
		DatabaseURL:           raw.DatabaseURL,
		SQLitePath:            raw.SQLitePath,
		DiscordToken:          raw.DiscordToken,
		DiscordChannelID:      raw.DiscordChannelID,
		MQTTBrokerURL:         raw.MQTTBrokerURL,
		MQTTClientID:          raw.MQTTClientID,
		MQTTUsername:          raw.MQTTUsername,
		MQTTPassword:          raw.MQTTPassword,
		MQTTTopicPrefix:       raw.MQTTTopicPrefix,
		TranscriptWebhookURL:  raw.TranscriptWebhookURL,
		RelayTimeout:          raw.RelayTimeout,
	}
	if overrides.WhisperModel != "" {
		cfg.WhisperModel = overrides.WhisperModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
