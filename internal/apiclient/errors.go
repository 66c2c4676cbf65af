package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const fallbackMessage = "Something went wrong. Please try again."

// ErrSessionExpired is wrapped by errors returned after the session could not
// be refreshed. Tokens have been cleared by then.
var ErrSessionExpired = errors.New("session expired")

// Error is the normalized shape of every failed call.
type Error struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Errors  []string `json:"errors,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallbackMessage
}

func newStatusError(status int, message string, details []json.RawMessage) *Error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = fallbackMessage
	}
	return &Error{Message: message, Status: status, Errors: flattenErrors(details)}
}

func newTransportError(err error) *Error {
	return &Error{Message: err.Error(), cause: err}
}

func sessionExpiredError(message string) *Error {
	if message == "" {
		message = "Your session has expired. Please log in again."
	}
	return &Error{Message: message, Status: http.StatusUnauthorized, cause: ErrSessionExpired}
}

// flattenErrors accepts both ["msg"] and [{"field":"email","message":"msg"}].
func flattenErrors(details []json.RawMessage) []string {
	if len(details) == 0 {
		return nil
	}

	out := make([]string, 0, len(details))
	for _, raw := range details {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			out = append(out, text)
			continue
		}

		var field struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &field); err == nil && field.Message != "" {
			if field.Field != "" {
				out = append(out, field.Field+": "+field.Message)
			} else {
				out = append(out, field.Message)
			}
			continue
		}

		out = append(out, string(raw))
	}
	return out
}
