package chronik

import (
	"fmt"

	"github.com/kailas-cloud/chronik/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery = domain.ErrInvalidQuery
	ErrUnauthorized = domain.ErrUnauthorized
)

// Error codes returned by the server.
const (
	CodeInvalidQuery = "INVALID_QUERY"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeServerError  = "SERVER_ERROR"
)

// APIError is a non-2xx response from the search API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chronik: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps server error codes onto the sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeInvalidQuery:
		return ErrInvalidQuery
	case CodeUnauthorized:
		return ErrUnauthorized
	}
	return nil
}
