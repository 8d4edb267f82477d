package agent

import "errors"

var (
	// ErrRemoteCall is returned when the reasoning service call fails.
	ErrRemoteCall = errors.New("remote call failed")

	// ErrMalformedResponse is returned when model output is not valid JSON
	// or does not match the expected record.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoSignal is returned when there is no news text to work with.
	ErrNoSignal = errors.New("no signal")

	// ErrEmptyDescription is returned by Map for a blank business description.
	ErrEmptyDescription = errors.New("business description is empty")
)
