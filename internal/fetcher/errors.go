package fetcher

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fetch failures
type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindNetworkError ErrorKind = "network_error"
	KindOther        ErrorKind = "other"
)

// FetchError is the typed failure returned by a page fetch. A missing
// content selector within the timeout is a timeout, not a parse error.
type FetchError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError unwraps a FetchError from an error chain
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
