package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogLogger(t *testing.T) {
	t.Run("creates logger with custom writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewSlogLogger(slog.LevelInfo, buf)

		require.NotNil(t, l)
		require.NotNil(t, l.logger)
	})

	t.Run("creates logger with default writer when nil", func(t *testing.T) {
		l := NewSlogLogger(slog.LevelInfo, nil)

		require.NotNil(t, l)
		require.NotNil(t, l.logger)
	})
}

func TestSlogLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		logFunc func(l *SlogLogger)
	}{
		{"Info", "INF", func(l *SlogLogger) { l.Info("test message") }},
		{"Warn", "WRN", func(l *SlogLogger) { l.Warn("warning message") }},
		{"Error", "ERR", func(l *SlogLogger) { l.Error("error message") }},
		{"Debug", "DBG", func(l *SlogLogger) { l.Debug("debug message") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewSlogLogger(slog.LevelDebug, buf)
			tt.logFunc(l)

			assert.Contains(t, buf.String(), tt.tag)
		})
	}
}

func TestSlogLoggerWithArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewSlogLogger(slog.LevelInfo, buf)

	l.Info("test message", "key1", "value1", "key2", 123)
	output := buf.String()

	assert.Contains(t, output, "key1=value1")
	assert.Contains(t, output, "key2=123")
}

func TestSlogLoggerOddNumberOfArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewSlogLogger(slog.LevelInfo, buf)

	l.Info("test message", "key1", "value1", "key2")
	output := buf.String()

	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key1=value1")
}

func TestSlogLoggerMinLevel(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  slog.Level
		logLevel  string
		logFunc   func(*SlogLogger)
		shouldLog bool
	}{
		{
			name:      "Debug not logged when min level is Info",
			minLevel:  slog.LevelInfo,
			logLevel:  "DBG",
			logFunc:   func(l *SlogLogger) { l.Debug("debug message") },
			shouldLog: false,
		},
		{
			name:      "Info logged when min level is Info",
			minLevel:  slog.LevelInfo,
			logLevel:  "INF",
			logFunc:   func(l *SlogLogger) { l.Info("info message") },
			shouldLog: true,
		},
		{
			name:      "Warn logged when min level is Info",
			minLevel:  slog.LevelInfo,
			logLevel:  "WRN",
			logFunc:   func(l *SlogLogger) { l.Warn("warn message") },
			shouldLog: true,
		},
		{
			name:      "Info not logged when min level is Error",
			minLevel:  slog.LevelError,
			logLevel:  "INF",
			logFunc:   func(l *SlogLogger) { l.Info("info message") },
			shouldLog: false,
		},
		{
			name:      "Debug logged when min level is Debug",
			minLevel:  slog.LevelDebug,
			logLevel:  "DBG",
			logFunc:   func(l *SlogLogger) { l.Debug("debug message") },
			shouldLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewSlogLogger(tt.minLevel, buf)

			tt.logFunc(l)
			output := buf.String()

			if tt.shouldLog {
				assert.NotEmpty(t, output)
				assert.Contains(t, output, tt.logLevel)
			} else {
				assert.Empty(t, output)
			}
		})
	}
}

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []interface{}
		expected int
	}{
		{name: "empty args", args: []interface{}{}, expected: 0},
		{name: "single key-value pair", args: []interface{}{"key", "value"}, expected: 1},
		{name: "multiple key-value pairs", args: []interface{}{"key1", "value1", "key2", "value2"}, expected: 2},
		{name: "odd number of args", args: []interface{}{"key1", "value1", "key2"}, expected: 1},
		{name: "non-string key", args: []interface{}{123, "value"}, expected: 0},
		{name: "mixed types", args: []interface{}{"key1", 42, "key2", true, "key3", 3.14}, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatArgs(tt.args...)
			assert.Len(t, result, tt.expected)
		})
	}
}

func TestSlogLoggerImplementsLogger(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
}

func TestLogFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewSlogLogger(slog.LevelInfo, buf)

	l.Info("Sensor initialized", "sensor", "simulated-sensor", "id", "test-id-123")
	output := buf.String()

	parts := strings.Fields(output)
	require.GreaterOrEqual(t, len(parts), 4)
	assert.Contains(t, parts[0], "-")
	assert.Contains(t, parts[1], ":")
	assert.Contains(t, output, "INF")
	assert.Contains(t, output, "Sensor initialized")
}
