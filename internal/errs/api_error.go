package errs

import "fmt"

// APIError is the structured error the fetch client raises when the upstream
// catalog answers with a non-2xx status. It carries enough request context
// for the classifier to build a full http fault.
type APIError struct {
	Status     int
	StatusText string
	Method     string
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream %s %s: HTTP %d %s", e.Method, e.URL, e.Status, e.StatusText)
}
