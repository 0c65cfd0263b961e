package domain

import "errors"

var (
	// ErrInvalidState signals a search selection that cannot be turned into a request.
	ErrInvalidState = errors.New("invalid search state")
	// ErrUnknownType signals a result type missing from the definition.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownFacet signals a selection for a facet the type does not have.
	ErrUnknownFacet = errors.New("unknown facet")
	// ErrInvalidDefinition signals a type definition that cannot be loaded.
	ErrInvalidDefinition = errors.New("invalid definition")

	// ErrBackendUnavailable signals a failed or unreachable search backend.
	ErrBackendUnavailable = errors.New("search backend unavailable")
)
