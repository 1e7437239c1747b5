package ports

import (
	"net/http"
)

// HTTPClient defines the interface for making HTTP requests
// Satisfied by *http.Client; swapped for a mock in adapter tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
