package domain

import "errors"

var (
	// ErrInvalidQuery signals a client-correctable search request (length, type code, limit).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnauthorized signals a missing or unresolvable session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownEntityType signals an entity type code outside the searchable set.
	ErrUnknownEntityType = errors.New("unknown entity type")
)
