package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Messages that cross the API boundary
const (
	MsgURLRequired        = "TeraBox URL is required"
	MsgAllEndpointsFailed = "All APIs failed to resolve the URL. Please try again later."
	MsgInternal           = "Internal server error"
)

// ErrorKind classifies resolution errors
type ErrorKind int

const (
	ErrInput ErrorKind = iota
	ErrEndpoint
	ErrExhausted
	ErrInternal
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// ResolveError is the single error type produced while resolving a link.
// Only InputError, ExhaustionError and InternalError ever reach a caller of
// the orchestrator; EndpointErrors stay inside it.
type ResolveError struct {
	Kind       ErrorKind              `json:"kind"`
	Status     int                    `json:"status"`
	Message    string                 `json:"message"`
	Severity   ErrorSeverity          `json:"severity"`
	Endpoint   string                 `json:"endpoint,omitempty"`
	URL        string                 `json:"url,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *ResolveError) Error() string {
	parts := []string{fmt.Sprintf("resolve error (status: %d, kind: %s)", e.Status, e.Kind.String())}

	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("endpoint %s", e.Endpoint))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, " - ")
}

// Unwrap exposes the underlying cause to errors.Is / errors.As
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// DetailedError returns a multi-line description for logs
func (e *ResolveError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Severity.String(), e.Kind.String()))
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("Status: %d", e.Status))
	}
	if e.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("Endpoint: %s", e.Endpoint))
	}
	if e.Message != "" {
		parts = append(parts, fmt.Sprintf("Message: %s", e.Message))
	}
	if e.URL != "" {
		parts = append(parts, fmt.Sprintf("URL: %s", redactSensitiveURL(e.URL)))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}
	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}
	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// PublicMessage is the only text of an error that may be shown to a user
func (e *ResolveError) PublicMessage() string {
	switch e.Kind {
	case ErrInput:
		if e.Message != "" {
			return e.Message
		}
		return MsgURLRequired
	case ErrExhausted:
		return MsgAllEndpointsFailed
	default:
		return MsgInternal
	}
}

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrInput:
		return "InputError"
	case ErrEndpoint:
		return "EndpointError"
	case ErrExhausted:
		return "ExhaustionError"
	case ErrInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// String returns the string representation of ErrorSeverity
func (es ErrorSeverity) String() string {
	switch es {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// NewResolveError creates a ResolveError with default severity and suggestion
func NewResolveError(kind ErrorKind, status int, message string) *ResolveError {
	return &ResolveError{
		Kind:       kind,
		Status:     status,
		Message:    message,
		Severity:   getDefaultSeverity(kind),
		Suggestion: getDefaultSuggestion(kind, status),
		Context:    make(map[string]interface{}),
	}
}

// WithSuggestion replaces the default suggestion
func (e *ResolveError) WithSuggestion(suggestion string) *ResolveError {
	e.Suggestion = suggestion
	return e
}

// WithURL records the source URL (redacted in detailed output)
func (e *ResolveError) WithURL(url string) *ResolveError {
	e.URL = url
	return e
}

// WithEndpoint records the endpoint that produced the error
func (e *ResolveError) WithEndpoint(name string) *ResolveError {
	e.Endpoint = name
	return e
}

// WithCause attaches the underlying error
func (e *ResolveError) WithCause(cause error) *ResolveError {
	e.Cause = cause
	return e
}

// WithContext adds context information to the error
func (e *ResolveError) WithContext(key string, value interface{}) *ResolveError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable reports whether resubmitting the same request could succeed
func (e *ResolveError) IsRetryable() bool {
	switch e.Kind {
	case ErrExhausted:
		return true
	case ErrEndpoint:
		return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
	default:
		return false
	}
}

// NewInputError creates an error for a rejected source URL
func NewInputError(message string) *ResolveError {
	if message == "" {
		message = MsgURLRequired
	}
	return NewResolveError(ErrInput, http.StatusBadRequest, message)
}

// NewEndpointError creates an error for one failed resolver attempt.
// status is the upstream HTTP status, 0 when no response was received.
func NewEndpointError(endpoint string, status int, reason string, cause error) *ResolveError {
	return NewResolveError(ErrEndpoint, status, reason).
		WithEndpoint(endpoint).
		WithCause(cause)
}

// NewExhaustionError creates the terminal error after every endpoint failed
func NewExhaustionError(attempts int) *ResolveError {
	return NewResolveError(ErrExhausted, http.StatusInternalServerError, MsgAllEndpointsFailed).
		WithContext("attempts", attempts)
}

// NewInternalError wraps an unexpected failure
func NewInternalError(cause error) *ResolveError {
	return NewResolveError(ErrInternal, http.StatusInternalServerError, MsgInternal).
		WithCause(cause)
}

// AsResolveError extracts a *ResolveError from an error chain
func AsResolveError(err error) (*ResolveError, bool) {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr, true
	}
	return nil, false
}

// IsKind reports whether err carries a ResolveError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	resolveErr, ok := AsResolveError(err)
	return ok && resolveErr.Kind == kind
}

// ValidationError represents configuration and flag validation errors
type ValidationError struct {
	Field      string                 `json:"field"`
	Message    string                 `json:"message"`
	Value      interface{}            `json:"value,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := []string{fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, " - ")
}

// DetailedError returns a detailed validation error message
func (e *ValidationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Validation Error for field '%s'", e.Field))
	parts = append(parts, fmt.Sprintf("Message: %s", e.Message))

	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("Provided value: %v", e.Value))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "\n")
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewValidationErrorWithValue creates a ValidationError with the invalid value
func NewValidationErrorWithValue(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Context: make(map[string]interface{}),
	}
}

// WithSuggestion adds a suggestion to the validation error
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds context to the validation error
func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func getDefaultSuggestion(kind ErrorKind, status int) string {
	switch kind {
	case ErrInput:
		return "Paste a TeraBox share link such as https://terabox.com/s/1AbC123"
	case ErrEndpoint:
		if status >= 500 {
			return "Resolver endpoint is failing server-side, the next endpoint will be tried"
		}
		return "Resolver endpoint rejected the link or changed its response format"
	case ErrExhausted:
		return "The link may be broken or point to multiple files, which is not supported. Try again later"
	case ErrInternal:
		return "Unexpected failure, check the server logs"
	default:
		return "Please check the error details and try again"
	}
}

func getDefaultSeverity(kind ErrorKind) ErrorSeverity {
	switch kind {
	case ErrInput:
		return SeverityInfo
	case ErrEndpoint:
		return SeverityWarning
	case ErrInternal:
		return SeverityCritical
	default:
		return SeverityError
	}
}

// redactSensitiveURL drops the query string, which is where share passwords
// and signed-link tokens live.
func redactSensitiveURL(url string) string {
	if strings.Contains(url, "?") {
		parts := strings.Split(url, "?")
		return parts[0] + "?[REDACTED]"
	}
	return url
}
