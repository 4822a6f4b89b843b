package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/sleepwatch/internal/config"
	"github.com/phrazzld/sleepwatch/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriterLevels(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		level       string
		debugLogged bool
		infoLogged  bool
		warnLogged  bool
	}{
		{"debug", true, true, true},
		{"INFO", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
		{"bogus", false, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			buf := &logger.TestLogBuffer{}
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.level}, buf)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Same(t, l, slog.Default())

			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")

			assert.Equal(t, tc.debugLogged, buf.CountMessages("debug message") == 1)
			assert.Equal(t, tc.infoLogged, buf.CountMessages("info message") == 1)
			assert.Equal(t, tc.warnLogged, buf.CountMessages("warn message") == 1)
		})
	}
}

func TestSetupEmitsJSON(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, buf)
	require.NoError(t, err)

	l.Info("window entered", "component", "tracking", "observations", 0)

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "tracking", entries[0]["component"])
	assert.EqualValues(t, 0, entries[0]["observations"])
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))

	l, buf := logger.NewTestLogger(t)
	ctx := logger.WithLogger(context.Background(), l)

	assert.Same(t, l, logger.FromContext(ctx))

	fallback, _ := logger.NewTestLogger(t)
	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))

	logger.FromContextOrDefault(ctx, fallback).Info("from context")
	logger.AssertLogContains(t, buf, "from context")
	logger.AssertLogNotContains(t, buf, "missing")
}
