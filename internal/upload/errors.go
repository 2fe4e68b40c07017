package upload

import (
	"errors"
	"fmt"
)

// ErrNoWallet is returned when an upload is started without an active
// wallet address.
var ErrNoWallet = errors.New("no wallet address connected")

// TrackError reports the track that failed a release upload.
type TrackError struct {
	Index int
	Title string
	Err   error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("track %d (%s): %v", e.Index, e.Title, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}

// StepError reports the release step that failed.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
