package model

import (
	"errors"
	"fmt"
)

// ErrNoTracks is returned when a release has an empty tracklist.
var ErrNoTracks = errors.New("at least 1 track is required")

// ValidationError describes a missing or malformed release field.
type ValidationError struct {
	// Field is the dotted path of the offending field, e.g. "tracks[1].title".
	Field string

	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the invariants the upload pipeline relies on. It does
// not apply defaults; call Normalize first.
func (r *Release) Validate() error {
	if r.Title == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if r.Description == "" {
		return &ValidationError{Field: "description", Reason: "required"}
	}
	if r.Artwork.IsZero() {
		return &ValidationError{Field: "artwork", Reason: "cover art is required"}
	}
	if len(r.Tracks) == 0 {
		return ErrNoTracks
	}

	for i, track := range r.Tracks {
		field := func(name string) string { return fmt.Sprintf("tracks[%d].%s", i, name) }
		if track == nil {
			return &ValidationError{Field: fmt.Sprintf("tracks[%d]", i), Reason: "missing"}
		}
		if track.Audio.IsZero() {
			return &ValidationError{Field: field("file"), Reason: "audio payload is empty"}
		}
		if track.Metadata.Title == "" {
			return &ValidationError{Field: field("title"), Reason: "required"}
		}
		if track.Metadata.Description == "" {
			return &ValidationError{Field: field("description"), Reason: "required"}
		}
		if track.Metadata.Artwork.IsZero() {
			return &ValidationError{Field: field("artwork"), Reason: "cover art is required"}
		}
	}

	if r.License != nil {
		if err := r.License.Validate(); err != nil {
			return err
		}
	}

	return nil
}
