package core

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger provides enhanced logging capabilities for the reader service
type Logger struct {
	*slog.Logger
	level    *slog.LevelVar
	mu       *sync.Mutex
	features map[string]*slog.Logger
}

// NewLoggerFromConfig creates a logger honoring the configured level and format
func NewLoggerFromConfig(cfg LogConfig, w io.Writer) *Logger {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger:   slog.New(handler),
		level:    level,
		mu:       &sync.Mutex{},
		features: make(map[string]*slog.Logger),
	}
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) derive(logger *slog.Logger) *Logger {
	return &Logger{
		Logger:   logger,
		level:    l.level,
		mu:       l.mu,
		features: l.features,
	}
}

// ForFeature returns a logger specific to a feature
func (l *Logger) ForFeature(featureName string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	featureLogger, exists := l.features[featureName]
	if !exists {
		featureLogger = l.Logger.With("feature", featureName)
		l.features[featureName] = featureLogger
	}

	return l.derive(featureLogger)
}

// WithContext returns a logger with request context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		return l.derive(l.Logger.With("request_id", requestID))
	}

	return l
}

// WithUser returns a logger with user context
func (l *Logger) WithUser(userID int) *Logger {
	return l.derive(l.Logger.With("user_id", userID))
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// LogFeatureEvent logs a feature-specific event
func (l *Logger) LogFeatureEvent(featureName, event string, attrs ...any) {
	featureLogger := l.ForFeature(featureName)
	featureLogger.Info("Feature event", append([]any{"event", event}, attrs...)...)
}

// LogFeatureError logs a feature-specific error
func (l *Logger) LogFeatureError(featureName, message string, err error, attrs ...any) {
	featureLogger := l.ForFeature(featureName)
	allAttrs := append([]any{"error", err}, attrs...)
	featureLogger.Error(message, allAttrs...)
}
