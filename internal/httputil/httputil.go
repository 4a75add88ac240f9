// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers and the shared error taxonomy for
// stages that talk to remote biomedical APIs.
package httputil

import "fmt"

// TransportError reports a failure at the network or HTTP layer: the request
// never completed, or the server answered with a non-2xx status.
type TransportError struct {
	// Status is the HTTP status code, or 0 when the request itself failed.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: HTTP %d", e.Status)
	}
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response body whose shape did not match what the
// remote API documents.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing response: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
