package core

import (
	"errors"
	"fmt"
)

// ErrMissingHost is returned when a non-CONNECT request carries no
// Host header. The connection is closed without a response.
var ErrMissingHost = errors.New("missing Host header")

// StoreError reports a corrupt or unreadable cache record, or an I/O
// failure while persisting one. The affected connection is aborted
// without a partial response.
type StoreError struct {
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache store, key %s: %v", e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ForwardError reports a failure talking to the origin: a malformed
// resolved URL, an unreachable host, or an I/O failure mid-transfer.
// Forwarding is never retried.
type ForwardError struct {
	URL string
	Err error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("forwarding to %s: %v", e.URL, e.Err)
}

func (e *ForwardError) Unwrap() error { return e.Err }

// TunnelError reports that a CONNECT target could not be reached. Relay
// I/O errors after establishment are not reported; a closed direction
// is the expected way a tunnel ends.
type TunnelError struct {
	Target string
	Err    error
}

func (e *TunnelError) Error() string {
	return fmt.Sprintf("tunnel to %s: %v", e.Target, e.Err)
}

func (e *TunnelError) Unwrap() error { return e.Err }
