// internal/crawlerr/errors.go
package crawlerr

import (
	"errors"
	"fmt"
)

// Common crawl errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrSessionClosed   = errors.New("browser session closed")
	ErrInvalidURL      = errors.New("invalid URL")
)

// Kind classifies a crawl failure by how the engine recovers from it.
type Kind string

const (
	// KindNavigation covers per-URL timeouts, DNS and HTTP failures. The URL is marked Failed.
	KindNavigation Kind = "NAVIGATION"
	// KindExtraction covers link and content parsing failures. The offending item is skipped.
	KindExtraction Kind = "EXTRACTION"
	// KindResource covers session start and teardown. Fatal on start, logged on teardown.
	KindResource Kind = "RESOURCE"
)

// Error wraps a crawl failure with its kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	URL  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, otherwise defers to the wrapped error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Err, target)
}

// Navigation builds a KindNavigation error.
func Navigation(op, url string, err error) *Error {
	return &Error{Kind: KindNavigation, Op: op, URL: url, Err: err}
}

// Extraction builds a KindExtraction error.
func Extraction(op, url string, err error) *Error {
	return &Error{Kind: KindExtraction, Op: op, URL: url, Err: err}
}

// Resource builds a KindResource error.
func Resource(op string, err error) *Error {
	return &Error{Kind: KindResource, Op: op, Err: err}
}

func IsNavigation(err error) bool { return isKind(err, KindNavigation) }

func IsExtraction(err error) bool { return isKind(err, KindExtraction) }

func IsResource(err error) bool { return isKind(err, KindResource) }

func isKind(err error, k Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == k
	}
	return false
}
