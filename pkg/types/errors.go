package types

import "fmt"

// InvalidInputError reports a bad request shape: missing image, empty
// instruction, or out-of-range configuration. Never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// UnreadableImageError reports a source image that cannot be decoded.
// Fatal for the run.
type UnreadableImageError struct {
	Source string
	Err    error
}

func (e *UnreadableImageError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("unreadable image %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("unreadable image: %v", e.Err)
}

func (e *UnreadableImageError) Unwrap() error { return e.Err }

// MalformedResponseError reports model output the parser cannot structurally
// interpret. Raw carries the original text for diagnostics; the parser never
// substitutes a default in its place.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %v", e.Err)
	}
	return "malformed model response"
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// InvalidStateError reports an operation attempted out of sequence, such as
// an inverse coordinate transform without a prior scale record. This is a
// programming bug, not a recoverable condition.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return "invalid state: " + e.Reason
}
