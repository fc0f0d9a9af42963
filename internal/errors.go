package internal

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var (
	ErrEventQueueNotConfigured = errors.New("anvil: event queue not configured")
	ErrRouteNotMatched         = errors.New("anvil: request did not match a catalog route")
)

// Severity ranks errors for logging and reporting.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityCritical
)

// LevelCritical sits above slog.LevelError so handlers can single out critical records.
const LevelCritical = slog.LevelError + 4

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityNotice:
		return "notice"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Level maps s to the slog level used when logging it.
func (s Severity) Level() slog.Level {
	switch {
	case s <= SeverityDebug:
		return slog.LevelDebug
	case s <= SeverityNotice:
		return slog.LevelInfo
	case s == SeverityWarning:
		return slog.LevelWarn
	case s == SeverityError:
		return slog.LevelError
	default:
		return LevelCritical
	}
}

// SeverityForCode is the default severity of an HTTP status:
// 5xx is an error, 4xx a notice, anything else info.
func SeverityForCode(code int) Severity {
	switch {
	case code >= 500:
		return SeverityError
	case code >= 400:
		return SeverityNotice
	default:
		return SeverityInfo
	}
}

// HTTPError is the error type handlers return to control the response.
// It carries the status code, a user-facing message and a severity.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// Detail is an optional extended description.
	Detail string

	// ErrorCode is an application-specific error code.
	ErrorCode string

	// RequestID is the request tracking ID.
	RequestID string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int

	Severity Severity
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError whose severity derives from code.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:     code,
		Message:  message,
		Severity: SeverityForCode(code),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithSeverity(s Severity) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Severity = s
	}
}

func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusMethodNotAllowed, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

// AsHTTPError extracts the HTTPError from err's chain.
// Returns nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

// toHTTPError returns err as an HTTPError, turning unknown errors into a 500
// that hides the cause from the client.
func toHTTPError(err error) *HTTPError {
	if he := AsHTTPError(err); he != nil {
		return he
	}
	return ErrInternal(http.StatusText(http.StatusInternalServerError), WithError(err))
}

type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Status    int    `json:"status"`
}

// DefaultErrorHandler logs err at the level of its severity and renders the
// status and message, as JSON when the client asks for it.
func DefaultErrorHandler(c Context, err error) error {
	he := toHTTPError(err)
	logError(c, he)

	if wantsJSON(c.Request()) {
		return c.JSON(he.Code, errorBody{
			Error:     he.Error(),
			Detail:    he.Detail,
			Code:      he.ErrorCode,
			RequestID: he.RequestID,
			Status:    he.Code,
		})
	}
	return c.String(he.Code, he.Error())
}

func logError(c Context, he *HTTPError) {
	attrs := []any{
		slog.Int("status", he.Code),
		slog.String("severity", he.Severity.String()),
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
	}
	if r, ok := c.Route(); ok {
		attrs = append(attrs, slog.String("route", r.Name))
	}
	if he.Err != nil {
		attrs = append(attrs, slog.Any("error", he.Err))
	}
	c.Logger().Log(c.Context(), he.Severity.Level(), he.Error(), attrs...)
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
