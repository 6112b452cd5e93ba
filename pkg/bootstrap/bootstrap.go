// Package bootstrap wires configuration, logging and the service
// dependencies. Every entry point constructs one Service and passes it
// down; nothing here is a hidden global.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"gopkg.in/natefinch/lumberjack.v2"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/infrastructure/database"
	infrapubsub "github.com/pedalhub/automator/pkg/infrastructure/pubsub"
	"github.com/pedalhub/automator/pkg/infrastructure/sentry"
	"github.com/pedalhub/automator/pkg/integrations/strava"
	"github.com/pedalhub/automator/pkg/integrations/weather"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID     string
	EnablePublish bool
	LogFile       string

	QueueBatchSize  int
	QueueRetryLimit int
	QueueDelay      time.Duration
	QueueMaxAge     time.Duration
}

// Service holds initialized dependencies
type Service struct {
	DB      shared.Database
	Pub     shared.Publisher
	Source  shared.ActivitySource
	Weather shared.WeatherService
	Config  *Config
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	return &Config{
		ProjectID:       projectID,
		EnablePublish:   os.Getenv("ENABLE_PUBLISH") == "true",
		LogFile:         os.Getenv("LOG_FILE"),
		QueueBatchSize:  envInt("QUEUE_BATCH_SIZE", shared.DefaultQueueBatchSize),
		QueueRetryLimit: envInt("QUEUE_RETRY_LIMIT", shared.DefaultQueueRetryLimit),
		QueueDelay:      envDuration("QUEUE_DELAY", shared.DefaultQueueDelay),
		QueueMaxAge:     envDuration("QUEUE_MAX_AGE", shared.DefaultQueueMaxAge),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false // stop
		}
		return true
	})

	if comp != "" {
		newMsg := fmt.Sprintf("[%s] %s", comp, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logWriter returns stdout, optionally teed into a rotated log file when
// LOG_FILE is set (useful for the local debug CLIs).
func logWriter(cfg *Config) io.Writer {
	if cfg == nil || cfg.LogFile == "" {
		return os.Stdout
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	return io.MultiWriter(os.Stdout, rotated)
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string, cfg *Config) *slog.Logger {
	opts := GetSlogHandlerOptions(logLevelFromEnv())
	handler := slog.NewJSONHandler(logWriter(cfg), opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger(cfg *Config) {
	opts := GetSlogHandlerOptions(logLevelFromEnv())
	handler := slog.NewJSONHandler(logWriter(cfg), opts)
	slog.SetDefault(slog.New(&ComponentHandler{Handler: handler}))
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	cfg := LoadConfig()
	InitLogger(cfg)

	slog.Info("Initializing service", "project_id", cfg.ProjectID)

	if err := sentry.Init(sentry.Config{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: os.Getenv("SENTRY_ENVIRONMENT"),
		Release:     os.Getenv("SERVICE_VERSION"),
	}, slog.Default()); err != nil {
		// Error tracking is best-effort; keep starting.
		slog.Warn("Sentry init failed", "error", err)
	}

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}
	db := database.NewFirestoreAdapter(fsClient)

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		slog.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		slog.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	return &Service{
		DB:      db,
		Pub:     pubAdapter,
		Source:  strava.NewClient(db),
		Weather: weather.NewClient(),
		Config:  cfg,
	}, nil
}
