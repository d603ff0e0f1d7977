package catalog

import "fmt"

// FetchError reports that the catalog request did not complete or was
// answered with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch catalog from %s: unexpected status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch catalog from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports a catalog payload that is not a well-formed array of
// project records.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode catalog from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
