// Package upstream defines the shared error contract for provider clients.
// Transport and HTTP failures surface as errors; a provider that answers
// HTTP 200 but signals failure in the payload surfaces as a BusinessError.
package upstream

import "fmt"

// StatusError is a non-2xx provider response. The raw body is kept for
// observability.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Provider, e.Status, truncate(e.Body, 200))
}

// BusinessError is a transport-level success whose payload reports failure.
type BusinessError struct {
	Provider string
	Message  string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s reported failure: %s", e.Provider, e.Message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
