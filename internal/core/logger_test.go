package core

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerFromConfig(LogConfig{Level: "info", Format: "json"}, &buf)

	var ctx context.Context
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	logger.ForFeature("reader").WithContext(ctx).WithUser(7).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "reader", line["feature"])
	assert.Equal(t, float64(7), line["user_id"])
	assert.NotEmpty(t, line["request_id"])
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerFromConfig(LogConfig{Level: "warn"}, &buf)
	feature := logger.ForFeature("reader")

	feature.Info("hidden")
	assert.Empty(t, buf.String())

	// Derived loggers share the level
	logger.SetLevel(slog.LevelDebug)
	feature.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
