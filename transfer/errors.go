package transfer

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a remote file client wraps exactly one of these, so
// callers can apply the same handling regardless of which client served the URL.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrTransfer     = errors.New("transfer failed")
	ErrIO           = errors.New("local I/O failed")
)

type Error struct {
	// Class is one of ErrNotFound, ErrAccessDenied, ErrTransfer or ErrIO.
	Class      error
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetching %s: %v", e.URL, e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Err}
}

func NewError(class error, url string, statusCode int, err error) *Error {
	return &Error{
		Class:      class,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ClassForStatus maps an HTTP status code onto an error class. It returns nil for 2xx codes.
func ClassForStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == 404 || code == 410:
		return ErrNotFound
	case code == 401 || code == 403:
		return ErrAccessDenied
	default:
		return ErrTransfer
	}
}
