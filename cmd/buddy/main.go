package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	broadcastimpl "github.com/foxseedlab/meetingbuddy/external/broadcast"
	configloader "github.com/foxseedlab/meetingbuddy/external/config"
	discordimpl "github.com/foxseedlab/meetingbuddy/external/discord"
	recognizerimpl "github.com/foxseedlab/meetingbuddy/external/recognizer"
	repositoryimpl "github.com/foxseedlab/meetingbuddy/external/repository"
	webhookimpl "github.com/foxseedlab/meetingbuddy/external/webhook"
	"github.com/foxseedlab/meetingbuddy/internal/config"
	"github.com/foxseedlab/meetingbuddy/internal/deps"
	"github.com/foxseedlab/meetingbuddy/internal/relay"
	"github.com/foxseedlab/meetingbuddy/internal/session"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	debug        bool
	whisperModel string
	name         string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "buddy",
		Short:        "Transcribe a meeting live with whisper.cpp",
		Long:         "buddy runs the whisper.cpp stream binary against a capture device and keeps a running transcript of everything it hears.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, opts)
		},
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Run in debug mode")
	root.PersistentFlags().StringVarP(&opts.whisperModel, "whisper", "w", "", "Use a specific whisper model (default: small.en-q5_1)")
	root.Flags().StringVarP(&opts.name, "name", "n", "", "A name for the session to label all log files")

	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newTranscriptCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := configloader.Load(configloader.Overrides{
		Debug:        opts.debug,
		WhisperModel: opts.whisperModel,
	})
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		level := slog.LevelInfo
		if cfg.DebugEnabled() {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	console := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           log.InfoLevel,
	})
	if cfg.DebugEnabled() {
		console.SetLevel(log.DebugLevel)
	}
	return slog.New(console)
}

func setupDI(cfg *config.Config, logger *slog.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	recognizerimpl.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	discordimpl.RegisterDI(injector)
	broadcastimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	relay.RegisterDI(injector)

	return injector
}

func runSession(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "env", cfg.Env, "cache_dir", cfg.CacheDir)

	logger.Info("checking dependencies")
	if err := deps.Verify(deps.CheckAll(deps.Required(cfg))); err != nil {
		return fmt.Errorf("%w (run `buddy check` for details)", err)
	}

	injector := setupDI(cfg, logger)
	relays, err := do.Invoke[*relay.Set](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve relays: %w", err)
	}
	defer func() {
		if err := relays.Close(); err != nil {
			logger.Error("relay close failed", "error", err)
		}
	}()
	newSession, err := do.Invoke[session.Factory](injector)
	if err != nil {
		return fmt.Errorf("failed to resolve session factory: %w", err)
	}
	s, err := newSession(opts.name, relays.Handlers)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	logger.Info("using whisper model", "model", cfg.WhisperModel)
	logger.Debug("recognizer command", "command", cfg.WhisperCommandLine())
	logger.Info("starting session", "path", s.BasePath())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down streams")
	}()

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("session %s: %w", s.Name(), err)
	}
	logger.Info("session finished", "transcript", s.TranscriptLogPath())
	return nil
}
