package roblox

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the upstream answers 404.
	ErrNotFound = errors.New("roblox: not found")

	// ErrInvalidRelayResponse is returned when the relay envelope has no contents.
	ErrInvalidRelayResponse = errors.New("roblox: invalid relay response")
)

// APIError is a non-2xx upstream response.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("roblox api status %d from %s: %s", e.Status, e.URL, e.Body)
}
