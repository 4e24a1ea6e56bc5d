package catalog

import (
	"fmt"
	"net/http"
)

// FetchError is returned when a catalog source cannot deliver records.
type FetchError struct {
	Source     string
	StatusCode int // 0 when the failure happened before a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch catalog from %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch catalog from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether retrying the fetch may succeed.
func (e *FetchError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// SchemaError is returned when a catalog document fails validation.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid catalog document: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
