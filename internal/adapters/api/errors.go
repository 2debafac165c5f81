package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched through errors.Is on an *APIError.
var (
	ErrConflict     = errors.New("schedule was changed by someone else")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("not found")
)

// TransportError means the request never reached the server or no response came back.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError means the server answered but reported failure or sent a malformed payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unwrap exposes the sentinel matching the HTTP status, if any.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Message extracts the server-provided message from err, or "" when there is none.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
