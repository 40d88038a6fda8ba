package api

import (
	"errors"
	"fmt"
)

// ErrDuplicateMachineID is returned when two Notion pages carry the same machine ID
var ErrDuplicateMachineID = errors.New("duplicate machine ID in Notion database")

// APIError represents a non-success response from HTB or Notion
type APIError struct {
	Service    string
	Method     string
	URL        string
	StatusCode int
	// Body is the raw response body, kept for diagnosis
	Body string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s API: %s %s returned status %d", e.Service, e.Method, e.URL, e.StatusCode)
}

// AsAPIError returns the *APIError wrapped in err, if any
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
