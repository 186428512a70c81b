package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAuth means the host platform rejected the shop credentials.
	ErrAuth = errors.New("authentication required")
	// ErrMalformedResponse marks upstream data that does not match the typed contract.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrBusy is returned when a load is requested while another is in flight.
	ErrBusy = errors.New("page fetch already in flight")
	// ErrNoMorePages is returned when the last page has already been merged.
	ErrNoMorePages = errors.New("no further pages")
	// ErrNothingToRetry is returned by Retry outside of the error state.
	ErrNothingToRetry = errors.New("nothing to retry")
)

// FetchError reports a failed or malformed page fetch.
type FetchError struct {
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a fetch that ran out of time.
func IsTimeout(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Timeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// AsFetchError wraps err in a FetchError unless it already is one or is an
// authentication failure, which callers handle separately.
func AsFetchError(op string, err error) error {
	if err == nil || errors.Is(err, ErrAuth) {
		return err
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Op: op, Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
}
