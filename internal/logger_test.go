package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureLogger_RedactSensitiveData(t *testing.T) {
	logger := NewDefaultLogger(false, false)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "redact_ndus_cookie",
			input:    "Cookie: ndus=abc123def456; lang=en",
			expected: "Cookie: ndus=[REDACTED]; lang=en",
		},
		{
			name:     "redact_authorization_header",
			input:    "Authorization: Bearer token123",
			expected: "Authorization: Bearer [REDACTED]",
		},
		{
			name:     "redact_signed_proxy_link",
			input:    "https://d.example.com/file?fid=42&sign=abcdef&expires=8h",
			expected: "https://d.example.com/file?fid=42&sign=[REDACTED]&expires=8h",
		},
		{
			name:     "no_sensitive_data",
			input:    "TeraBox API 1 failed with status 502",
			expected: "TeraBox API 1 failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := logger.redactSensitiveData(tt.input)
			if result != tt.expected {
				t.Errorf("redactSensitiveData() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSecureLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, logrus.WarnLevel, LogFormatText, false, false)

	logger.Debug("debug message")
	logger.Info("info message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")

	buf.Reset()
	logger.Warn("warn message")
	logger.Error("error message")

	output = buf.String()
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestSecureLogger_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, logrus.DebugLevel, LogFormatText, true, true)

	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "info message")
	assert.NotContains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestSecureLogger_DebugAddsCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, logrus.InfoLevel, LogFormatText, true, false)

	assert.Equal(t, logrus.DebugLevel, logger.Level())

	logger.Debug("with caller")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestSecureLogger_JSONFieldsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, logrus.InfoLevel, LogFormatJSON, false, false)

	logger.WithFields(map[string]interface{}{
		"endpoint": "TeraBox API 1",
		"link":     "https://d.example.com/x?token=abc",
	}).WithField("attempt", 2).Info("resolved %s", "a.mp4")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "resolved a.mp4", entry["msg"])
	assert.Equal(t, "TeraBox API 1", entry["endpoint"])
	assert.Equal(t, "https://d.example.com/x?token=[REDACTED]", entry["link"])
	assert.EqualValues(t, 2, entry["attempt"])
}

func TestSecureLogger_LogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, logrus.DebugLevel, LogFormatText, false, false)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/?url=x&token=secret", nil)
	require.NoError(t, err)
	req.Header.Set("Cookie", "ndus=secret")
	req.Header.Set("Accept", "application/json")

	logger.LogHTTPRequest(req)

	output := buf.String()
	assert.Contains(t, output, "HTTP Request: GET")
	assert.Contains(t, output, "[REDACTED]")
	assert.Contains(t, output, "application/json")
	assert.False(t, strings.Contains(output, "secret"), "output leaked a secret: %s", output)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"nonsense", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewSecureLogger(&buf, logrus.InfoLevel, LogFormatText, false, false))
	defer SetLogger(nil)

	LogInfo("hello %s", "world")
	LogResolveError(NewExhaustionError(2))

	output := buf.String()
	assert.Contains(t, output, "hello world")
	assert.Contains(t, output, "ExhaustionError")
	assert.Contains(t, output, "kind=ExhaustionError")
}
