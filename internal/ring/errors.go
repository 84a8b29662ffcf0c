package ring

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is returned when a date string cannot be parsed as a calendar date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidUnit is returned for a window unit other than day, week, month or year.
	ErrInvalidUnit = errors.New("invalid window unit")
	// ErrSchemaMismatch is returned when no schema is registered for a data type.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInsufficientData is returned when a series is too short for segmentation.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrEmptySeries is returned when there is nothing to render or save.
	ErrEmptySeries = errors.New("empty series")
	// ErrNetwork covers timeouts, transport failures and non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when a 2xx body is not an object with a data array.
	ErrMalformedResponse = errors.New("malformed api response")
	// ErrMissingToken is returned when the API is called without an access token.
	ErrMissingToken = errors.New("access token is not configured")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileAccess    = errors.New("file access error")
	// ErrDuplicateDate is returned under DuplicateReject when a date appears twice.
	ErrDuplicateDate    = errors.New("duplicate date")
	ErrInvalidSource    = errors.New("invalid data source")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// StatusError reports a non-2xx response from the remote API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: unexpected status code %d", ErrNetwork, e.StatusCode)
	}
	return fmt.Sprintf("%v: unexpected status code %d: %s", ErrNetwork, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrNetwork
}
