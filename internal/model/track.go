package model

// Track represents a single track within a release.
//
// Track holds the audio payload and the per-track metadata used for
// tagging. Artwork is either set explicitly or, for single-track
// releases, inherited from the release by Release.Normalize.
//
// Example:
//
//	track := &Track{
//	    Audio: Asset{Data: mp3, ContentType: "audio/mpeg", Name: "01.mp3"},
//	    Metadata: TrackMetadata{
//	        Title:       "Intro",
//	        Description: "Opening track",
//	        Genre:       "electronic",
//	        Artwork:     cover,
//	    },
//	}
type Track struct {
	// Audio is the audio payload.
	Audio Asset

	// Metadata describes the track.
	Metadata TrackMetadata
}

// TrackMetadata holds the descriptive fields of a track.
type TrackMetadata struct {
	// Title is the track title. Required.
	Title string

	// Description is the track description. Required.
	Description string

	// Genre is the track genre.
	Genre string

	// Artwork is the track cover art. When its bytes equal the release
	// artwork, the release artwork content id is reused.
	Artwork Asset
}
