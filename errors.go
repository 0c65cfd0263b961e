package kgsearch

import (
	"errors"
	"fmt"

	"github.com/ebrains-kg/kgsearch/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidState       = domain.ErrInvalidState
	ErrUnknownType        = domain.ErrUnknownType
	ErrUnknownFacet       = domain.ErrUnknownFacet
	ErrBackendUnavailable = domain.ErrBackendUnavailable

	// ErrUnauthorized signals a missing or rejected API key.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("kgsearch: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("kgsearch: %s (http %d): %s", e.Code, e.StatusCode, e.Message)
}

// Is maps error codes to the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case "validation_failed":
		return target == ErrInvalidState
	case "unknown_type":
		return target == ErrUnknownType
	case "unknown_facet":
		return target == ErrUnknownFacet
	case "backend_unavailable":
		return target == ErrBackendUnavailable
	case "unauthorized":
		return target == ErrUnauthorized
	}
	return false
}
