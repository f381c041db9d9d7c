// ABOUTME: Typed fetch failures: integrity exhaustion, transport exhaustion, bad status
// ABOUTME: IsRetryable separates retry-whole-install failures from fatal ones

package fetch

import (
	"errors"
	"fmt"
)

// IntegrityError reports an artifact whose size/hash checks never passed
// within the attempt budget.
type IntegrityError struct {
	Artifact     string
	ExpectedHash string
	Attempts     int
	Err          error // last verification failure
}

func (e *IntegrityError) Error() string {
	hash := e.ExpectedHash
	if hash == "" {
		hash = "<none>"
	}
	return fmt.Sprintf("download of %s failed verification after %d attempts (expected sha1 %s): %v",
		e.Artifact, e.Attempts, hash, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// TransportError reports a source that could not be read within the
// attempt budget, or whose fallback also failed.
type TransportError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// IsRetryable reports whether err came from a failure that a fresh install
// attempt might not repeat.
func IsRetryable(err error) bool {
	var ie *IntegrityError
	var te *TransportError
	return errors.As(err, &ie) || errors.As(err, &te)
}

// attemptKind classifies a single failed attempt.
type attemptKind int

const (
	kindTransport attemptKind = iota
	kindIntegrity
	kindFatal
)

type attemptError struct {
	kind attemptKind
	err  error
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

func transportFailure(err error) error { return &attemptError{kind: kindTransport, err: err} }
func integrityFailure(err error) error { return &attemptError{kind: kindIntegrity, err: err} }
func fatalFailure(err error) error     { return &attemptError{kind: kindFatal, err: err} }
