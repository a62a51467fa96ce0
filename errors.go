package entsync

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures. Stores add no kinds of their own;
// whatever the gateway produced propagates unchanged to the UI caller.
type ErrorKind string

const (
	// KindOffline marks a mutating call blocked (or failed) while the
	// connectivity monitor reports the network unreachable.
	KindOffline ErrorKind = "OFFLINE"
	// KindNetworkError marks a transport-level failure while ostensibly
	// online (DNS, connection refused, timeout).
	KindNetworkError ErrorKind = "NETWORK_ERROR"
	// KindConflict marks an HTTP 409: the optimistic-concurrency token the
	// client submitted no longer matches the server's record.
	KindConflict ErrorKind = "CONFLICT"
	// KindHTTPError marks any other non-2xx response.
	KindHTTPError ErrorKind = "HTTP_ERROR"
)

// Error is the typed failure every gateway call resolves to.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status when applicable, 0 otherwise
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("entsync: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("entsync: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the classification of err, or "" when err is not a layer error.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsConflict reports whether err is a rejected mutation caused by a stale
// rowVersion. The caller is expected to prompt a reload; nothing retries.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsOffline reports whether err was produced by the offline guard or an
// offline-classified transport failure.
func IsOffline(err error) bool { return KindOf(err) == KindOffline }
