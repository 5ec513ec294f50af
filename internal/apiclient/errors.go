package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"course-portal/internal/domain"
)

// ErrMalformedResponse is returned when a success response cannot be decoded
// or violates the backend contract
var ErrMalformedResponse = errors.New("malformed response from backend")

var errEmptyBody = errors.New("empty body")

const maxMessageLen = 200

// ResponseError is a non-2xx answer from the backend. A 401 or 403 also
// matches domain.ErrSessionExpired.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	msg := e.Message()
	if msg == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *ResponseError) Is(target error) bool {
	return target == domain.ErrSessionExpired && isAuthFailure(e.StatusCode)
}

// Status returns the HTTP status code
func (e *ResponseError) Status() int {
	return e.StatusCode
}

// Message extracts a human-readable message from the response body. JSON
// bodies are searched for message, error, title and detail fields.
func (e *ResponseError) Message() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(e.Body, &fields); err == nil {
		for _, key := range []string{"message", "error", "detail", "title"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return truncate(s)
			}
		}
		return ""
	}

	var list []string
	if err := json.Unmarshal(e.Body, &list); err == nil {
		return truncate(strings.Join(list, "; "))
	}
	return truncate(body)
}

// TransportError is a request that never produced a response
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{domain.ErrTransportFailure, e.Err}
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
