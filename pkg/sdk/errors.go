package searchd

import "fmt"

// APIError is a structured error returned by the searchd API.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // machine-readable code, e.g. "invalid_query"
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("searchd: %s (%d): %s", e.Code, e.Status, e.Message)
}
