package model

import (
	"bytes"
	"time"
)

// DefaultGenre is used when neither the track nor the release names a genre.
const DefaultGenre = "none"

// Asset is a binary payload together with its MIME type. Release artwork,
// track artwork, and audio files are all assets.
type Asset struct {
	// Data holds the raw bytes of the payload.
	Data []byte

	// ContentType is the MIME type, e.g. "audio/mpeg" or "image/png".
	ContentType string

	// Name is the source file name, if known. It is only used in messages.
	Name string
}

// IsZero reports whether the asset carries no bytes.
func (a Asset) IsZero() bool {
	return len(a.Data) == 0
}

// Size returns the payload length in bytes.
func (a Asset) Size() int64 {
	return int64(len(a.Data))
}

// SameBytes reports whether both assets hold byte-identical payloads.
// Content types and names are ignored.
func (a Asset) SameBytes(other Asset) bool {
	return bytes.Equal(a.Data, other.Data)
}

// Release represents an audio release with its metadata and tracks.
//
// Release contains everything the upload pipeline needs:
//   - Title, Description and Genre for tagging
//   - Topics, a free-text comma-separated list of topic tags
//   - Artwork, uploaded once and shared with tracks that reuse it
//   - License, the optional licensing terms applied to every track
//   - Tracks, at least one
type Release struct {
	// Title is the release title.
	Title string

	// Description is the release description.
	Description string

	// Topics is a comma-separated list of free-text topics,
	// e.g. "lofi, late night, tape".
	Topics string

	// Genre is the release genre.
	Genre string

	// ReleaseDate is the optional release date. Zero means unset.
	ReleaseDate time.Time

	// Artwork is the release cover art.
	Artwork Asset

	// License is the licensing choice. Nil means no license tags.
	License License

	// TokenQuantity is the number of ownership units offered per track.
	TokenQuantity int

	// Tracks contains all tracks in list order.
	Tracks []*Track
}

// IsCollection reports whether the release has more than one track and
// therefore gets a collection manifest.
func (r *Release) IsCollection() bool {
	return len(r.Tracks) > 1
}

// TotalSize returns the number of bytes a full upload of the release
// sends: release artwork, every track payload, and every track artwork.
func (r *Release) TotalSize() int64 {
	total := r.Artwork.Size()
	for _, track := range r.Tracks {
		total += track.Audio.Size()
		total += track.Metadata.Artwork.Size()
	}
	return total
}

// Normalize fills implicit values in place.
//
// A single-track release behaves like a simple release: the track's
// title, description, genre and artwork are mirrored from the release
// when left unset. Empty genres fall back to the release genre and then
// to DefaultGenre.
func (r *Release) Normalize() {
	if r.Genre == "" {
		r.Genre = DefaultGenre
	}

	if len(r.Tracks) == 1 && r.Tracks[0] != nil {
		meta := &r.Tracks[0].Metadata
		if meta.Title == "" {
			meta.Title = r.Title
		}
		if meta.Description == "" {
			meta.Description = r.Description
		}
		if meta.Artwork.IsZero() {
			meta.Artwork = r.Artwork
		}
	}

	for _, track := range r.Tracks {
		if track != nil && track.Metadata.Genre == "" {
			track.Metadata.Genre = r.Genre
		}
	}
}
