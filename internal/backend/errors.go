package backend

import "fmt"

// TransportError reports that the HTTP call never completed: DNS failure,
// refused connection, timeout.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable at %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError reports a completed call that came back outside the 2xx range.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("backend returned status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// HTTPStatusCode exposes the status for callers that branch on it.
func (e *HTTPError) HTTPStatusCode() int {
	return e.StatusCode
}
