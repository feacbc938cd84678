package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveError_Error(t *testing.T) {
	err := NewEndpointError("TeraBox API 1", 502, "upstream returned non-success status", errors.New("bad gateway"))

	result := err.Error()

	if !strings.Contains(result, "resolve error") {
		t.Error("Error message should contain 'resolve error'")
	}
	if !strings.Contains(result, "502") {
		t.Error("Error message should contain the status")
	}
	if !strings.Contains(result, "EndpointError") {
		t.Error("Error message should contain the kind")
	}
	if !strings.Contains(result, "TeraBox API 1") {
		t.Error("Error message should contain the endpoint")
	}
	if !strings.Contains(result, "bad gateway") {
		t.Error("Error message should contain the cause")
	}
}

func TestResolveError_DetailedError(t *testing.T) {
	err := NewExhaustionError(4).
		WithURL("https://terabox.com/s/1AbC123?pwd=secret")

	result := err.DetailedError()

	assert.Contains(t, result, "ERROR")
	assert.Contains(t, result, "ExhaustionError")
	assert.Contains(t, result, "Status: 500")
	assert.Contains(t, result, "attempts=4")
	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "https://terabox.com/s/1AbC123?[REDACTED]")
	assert.NotContains(t, result, "secret")
}

func TestResolveError_PublicMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *ResolveError
		expected string
	}{
		{"input_default", NewInputError(""), MsgURLRequired},
		{"input_custom", NewInputError("not a TeraBox link"), "not a TeraBox link"},
		{"exhausted", NewExhaustionError(3), MsgAllEndpointsFailed},
		{"internal_hides_cause", NewInternalError(errors.New("db password is hunter2")), MsgInternal},
		{"endpoint_never_leaks", NewEndpointError("api", 500, "boom", nil), MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.PublicMessage())
		})
	}
}

func TestResolveError_Unwrap(t *testing.T) {
	err := NewInternalError(context.Canceled)

	assert.True(t, errors.Is(err, context.Canceled))

	wrapped := fmt.Errorf("handler: %w", err)
	resolveErr, ok := AsResolveError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrInternal, resolveErr.Kind)
	assert.True(t, IsKind(wrapped, ErrInternal))
	assert.False(t, IsKind(wrapped, ErrInput))

	_, ok = AsResolveError(errors.New("plain"))
	assert.False(t, ok)
}

func TestResolveError_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *ResolveError
		retryable bool
	}{
		{"input", NewInputError(""), false},
		{"exhausted", NewExhaustionError(1), true},
		{"internal", NewInternalError(nil), false},
		{"endpoint_transport", NewEndpointError("a", 0, "dial", nil), true},
		{"endpoint_server", NewEndpointError("a", 503, "down", nil), true},
		{"endpoint_rate_limited", NewEndpointError("a", http.StatusTooManyRequests, "slow down", nil), true},
		{"endpoint_not_found", NewEndpointError("a", 404, "missing", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	t.Run("NewInputError", func(t *testing.T) {
		err := NewInputError("")
		assert.Equal(t, ErrInput, err.Kind)
		assert.Equal(t, http.StatusBadRequest, err.Status)
		assert.Equal(t, SeverityInfo, err.Severity)
		assert.Contains(t, err.Suggestion, "terabox.com/s/")
	})

	t.Run("NewExhaustionError", func(t *testing.T) {
		err := NewExhaustionError(0)
		assert.Equal(t, ErrExhausted, err.Kind)
		assert.Equal(t, http.StatusInternalServerError, err.Status)
		assert.Equal(t, MsgAllEndpointsFailed, err.Message)
		assert.Contains(t, err.Suggestion, "multiple files")
	})

	t.Run("NewInternalError", func(t *testing.T) {
		err := NewInternalError(errors.New("boom"))
		assert.Equal(t, ErrInternal, err.Kind)
		assert.Equal(t, SeverityCritical, err.Severity)
	})

	t.Run("NewEndpointError", func(t *testing.T) {
		err := NewEndpointError("TeraBox API 2", 0, "request failed", nil)
		assert.Equal(t, "TeraBox API 2", err.Endpoint)
		assert.Equal(t, SeverityWarning, err.Severity)
	})
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind     ErrorKind
		expected string
	}{
		{ErrInput, "InputError"},
		{ErrEndpoint, "EndpointError"},
		{ErrExhausted, "ExhaustionError"},
		{ErrInternal, "InternalError"},
		{ErrorKind(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.kind.String(); result != tt.expected {
				t.Errorf("ErrorKind.String() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestValidationError_DetailedError(t *testing.T) {
	err := NewValidationErrorWithValue("endpoint_timeout", "must be greater than zero", 0).
		WithSuggestion("Use a duration such as 15s").
		WithContext("min", "1ns")

	result := err.DetailedError()

	assert.Contains(t, result, "Validation Error for field 'endpoint_timeout'")
	assert.Contains(t, result, "Provided value: 0")
	assert.Contains(t, result, "min=1ns")
	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, err.Error(), "validation error for endpoint_timeout")
}

func TestRedactSensitiveURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"url_with_query_params", "https://proxy.example/dl?sign=abc&fid=1", "https://proxy.example/dl?[REDACTED]"},
		{"url_without_query_params", "https://terabox.com/s/1AbC123", "https://terabox.com/s/1AbC123"},
		{"empty_url", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := redactSensitiveURL(tt.input); result != tt.expected {
				t.Errorf("redactSensitiveURL() = %q, want %q", result, tt.expected)
			}
		})
	}
}
