// Package gateway defines the boundary to the external recognition
// capability. The pipeline depends only on this contract, never on a
// concrete backend, so tests can substitute doubles returning canned text.
package gateway

import "context"

// Request is one recognition call. Image may be nil for text-only stages.
// ExpectStructured hints that the instruction asks for JSON output; how a
// backend honors the hint is its own business.
type Request struct {
	Image            []byte
	Instruction      string
	ExpectStructured bool
}

// Client invokes the external recognition capability and returns its raw
// text. Transport, authentication, retry, and timeout defaults belong to
// the implementation behind this interface.
type Client interface {
	Invoke(ctx context.Context, req Request) (string, error)
}
