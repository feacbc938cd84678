package internal

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log output formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// SecureLogger wraps a logrus logger and scrubs secrets out of every message
// and field value before it is written.
type SecureLogger struct {
	logger    *logrus.Logger
	debug     bool
	quiet     bool
	redactors []Redactor
}

// Redactor defines an interface for redacting sensitive information
type Redactor interface {
	Redact(input string) string
}

// CookieRedactor redacts cookie and auth header values
type CookieRedactor struct{}

func (r *CookieRedactor) Redact(input string) string {
	patterns := []string{
		"ndus=",
		"BDUSS=",
		"STOKEN=",
		"Cookie:",
		"Set-Cookie:",
		"Authorization:",
		"Bearer ",
	}

	result := input
	for _, pattern := range patterns {
		lower := strings.ToLower(result)
		index := strings.Index(lower, strings.ToLower(pattern))
		if index == -1 {
			continue
		}
		start := index + len(pattern)
		end := start
		for end < len(result) && result[end] != ' ' && result[end] != ';' && result[end] != '\n' && result[end] != '\r' {
			end++
		}
		if end > start {
			result = result[:start] + "[REDACTED]" + result[end:]
		}
	}
	return result
}

// URLRedactor redacts sensitive URL parameters. Resolver proxy links carry
// signed tokens in "sign" and "token" parameters.
type URLRedactor struct{}

func (r *URLRedactor) Redact(input string) string {
	sensitiveParams := []string{
		"access_token=",
		"token=",
		"sign=",
		"key=",
		"secret=",
		"password=",
		"pwd=",
	}

	result := input
	for _, param := range sensitiveParams {
		lower := strings.ToLower(result)
		index := strings.Index(lower, param)
		if index == -1 {
			continue
		}
		start := index + len(param)
		end := start
		for end < len(result) && result[end] != '&' && result[end] != ' ' && result[end] != '\n' {
			end++
		}
		if end > start {
			result = result[:start] + "[REDACTED]" + result[end:]
		}
	}
	return result
}

// NewSecureLogger creates a logger writing to output in the given format
func NewSecureLogger(output io.Writer, level logrus.Level, format string, debug, quiet bool) *SecureLogger {
	logger := logrus.New()
	logger.SetOutput(output)

	switch format {
	case LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
	}

	sl := &SecureLogger{
		logger: logger,
		redactors: []Redactor{
			&CookieRedactor{},
			&URLRedactor{},
		},
	}
	sl.logger.SetLevel(level)
	sl.SetDebug(debug)
	sl.SetQuiet(quiet)

	return sl
}

// NewDefaultLogger creates a text logger on stderr
func NewDefaultLogger(debug, quiet bool) *SecureLogger {
	return NewSecureLogger(os.Stderr, logrus.InfoLevel, LogFormatText, debug, quiet)
}

func (sl *SecureLogger) redactSensitiveData(input string) string {
	result := input
	for _, redactor := range sl.redactors {
		result = redactor.Redact(result)
	}
	return result
}

func (sl *SecureLogger) redactFields(fields map[string]interface{}) logrus.Fields {
	redacted := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			redacted[k] = sl.redactSensitiveData(s)
			continue
		}
		if err, ok := v.(error); ok {
			redacted[k] = sl.redactSensitiveData(err.Error())
			continue
		}
		redacted[k] = v
	}
	return redacted
}

func (sl *SecureLogger) log(entry *logrus.Entry, level logrus.Level, format string, args ...interface{}) {
	if !sl.logger.IsLevelEnabled(level) {
		return
	}
	message := sl.redactSensitiveData(fmt.Sprintf(format, args...))
	if sl.debug {
		entry = entry.WithField("caller", callerLocation())
	}
	entry.Log(level, message)
}

// callerLocation finds the first frame outside the logging files
func callerLocation() string {
	for depth := 2; depth <= 6; depth++ {
		_, file, line, ok := runtime.Caller(depth)
		if !ok {
			break
		}
		if strings.HasSuffix(file, "internal/logger.go") || strings.HasSuffix(file, "internal/log.go") {
			continue
		}
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return "unknown"
}

// Error logs an error message
func (sl *SecureLogger) Error(format string, args ...interface{}) {
	sl.log(logrus.NewEntry(sl.logger), logrus.ErrorLevel, format, args...)
}

// Warn logs a warning message
func (sl *SecureLogger) Warn(format string, args ...interface{}) {
	sl.log(logrus.NewEntry(sl.logger), logrus.WarnLevel, format, args...)
}

// Info logs an info message
func (sl *SecureLogger) Info(format string, args ...interface{}) {
	sl.log(logrus.NewEntry(sl.logger), logrus.InfoLevel, format, args...)
}

// Debug logs a debug message
func (sl *SecureLogger) Debug(format string, args ...interface{}) {
	sl.log(logrus.NewEntry(sl.logger), logrus.DebugLevel, format, args...)
}

// WithFields returns a logger that attaches the (redacted) fields to every entry
func (sl *SecureLogger) WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{
		parent: sl,
		entry:  sl.logger.WithFields(sl.redactFields(fields)),
	}
}

// FieldLogger is a SecureLogger bound to a set of structured fields
type FieldLogger struct {
	parent *SecureLogger
	entry  *logrus.Entry
}

// WithField adds one more field
func (fl *FieldLogger) WithField(key string, value interface{}) *FieldLogger {
	redacted := fl.parent.redactFields(map[string]interface{}{key: value})
	return &FieldLogger{parent: fl.parent, entry: fl.entry.WithFields(redacted)}
}

func (fl *FieldLogger) Error(format string, args ...interface{}) {
	fl.parent.log(fl.entry, logrus.ErrorLevel, format, args...)
}

func (fl *FieldLogger) Warn(format string, args ...interface{}) {
	fl.parent.log(fl.entry, logrus.WarnLevel, format, args...)
}

func (fl *FieldLogger) Info(format string, args ...interface{}) {
	fl.parent.log(fl.entry, logrus.InfoLevel, format, args...)
}

func (fl *FieldLogger) Debug(format string, args ...interface{}) {
	fl.parent.log(fl.entry, logrus.DebugLevel, format, args...)
}

// LogHTTPRequest logs an outbound request with sensitive headers redacted
func (sl *SecureLogger) LogHTTPRequest(req *http.Request) {
	if !sl.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	sl.Debug("HTTP Request: %s %s Headers: %v", req.Method, req.URL.String(), sl.sanitizeHeaders(req.Header))
}

// LogHTTPResponse logs a response with sensitive headers redacted
func (sl *SecureLogger) LogHTTPResponse(resp *http.Response) {
	if !sl.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	sl.Debug("HTTP Response: %s Headers: %v", resp.Status, sl.sanitizeHeaders(resp.Header))
}

func (sl *SecureLogger) sanitizeHeaders(header http.Header) map[string]string {
	sanitized := make(map[string]string, len(header))
	for name, values := range header {
		if sl.isSensitiveHeader(name) {
			sanitized[name] = "[REDACTED]"
		} else {
			sanitized[name] = strings.Join(values, ", ")
		}
	}
	return sanitized
}

func (sl *SecureLogger) isSensitiveHeader(name string) bool {
	sensitiveHeaders := []string{
		"authorization",
		"cookie",
		"set-cookie",
		"x-auth-token",
		"x-api-key",
		"token",
	}

	lowerName := strings.ToLower(name)
	for _, sensitive := range sensitiveHeaders {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// SetLevel sets the logging level
func (sl *SecureLogger) SetLevel(level logrus.Level) {
	sl.logger.SetLevel(level)
}

// Level returns the current logging level
func (sl *SecureLogger) Level() logrus.Level {
	return sl.logger.GetLevel()
}

// SetDebug toggles debug level and caller annotation
func (sl *SecureLogger) SetDebug(debug bool) {
	sl.debug = debug
	if debug && sl.logger.GetLevel() < logrus.DebugLevel {
		sl.logger.SetLevel(logrus.DebugLevel)
	}
}

// SetQuiet limits output to errors
func (sl *SecureLogger) SetQuiet(quiet bool) {
	sl.quiet = quiet
	if quiet {
		sl.logger.SetLevel(logrus.ErrorLevel)
	}
}

// AddRedactor adds a custom redactor
func (sl *SecureLogger) AddRedactor(redactor Redactor) {
	sl.redactors = append(sl.redactors, redactor)
}
