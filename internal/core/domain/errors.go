package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthenticationFailed matches every *AuthError via errors.Is.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrNotAuthenticated is returned when a session could not be established
	// or restored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTokenNotFound is returned by token stores holding no durable token.
	ErrTokenNotFound = errors.New("token not found")
	// ErrPanelForbidden is returned when the principal's role may not open a
	// panel.
	ErrPanelForbidden = errors.New("panel not available for role")
)

// Errors raised by the stub server's services.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrConflict           = errors.New("resource already exists")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionExpired     = errors.New("session expired")
)

// AuthError reports a credential, refresh or token failure. It is terminal for
// the call that produced it and may have reset the session.
type AuthError struct {
	// Op is the session operation that failed: register, login, refresh or
	// request.
	Op string
	// Detail carries the server's message when one was available. Callers
	// must not depend on it.
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	msg := e.Op + " failed"
	if e.Op == "request" {
		msg = ErrAuthenticationFailed.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is makes every AuthError match ErrAuthenticationFailed.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// RequestError is any non-2xx response or transport failure other than the
// unauthorized case the facade recovers from. It never resets the session.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int    // 0 when the request never got a response
	Message    string // server-provided message, if any
	Body       []byte
	Err        error // transport cause, if any
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, msg)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a RequestError carrying the given status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == status
}

// ValidationError reports input rejected before any request was sent, or a
// response that did not decode into the expected record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// MessageFromBody extracts the human-readable message from an error body of
// the form {"message": "..."} or {"error": "..."}. It returns "" for anything
// else.
func MessageFromBody(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return strings.TrimSpace(envelope.Message)
	}
	return strings.TrimSpace(envelope.Error)
}
