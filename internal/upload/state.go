package upload

// State is the lifecycle state of a release upload.
//
//	NotStarted -> ArtworkUploading -> TracksUploading
//	           -> CollectionUploading (multi-track only)
//	           -> Registering -> Done
//
// Failed is absorbing. Registration never leads to Failed.
type State int

const (
	StateNotStarted State = iota
	StateArtworkUploading
	StateTracksUploading
	StateCollectionUploading
	StateRegistering
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateNotStarted:          "not-started",
	StateArtworkUploading:    "artwork-uploading",
	StateTracksUploading:     "tracks-uploading",
	StateCollectionUploading: "collection-uploading",
	StateRegistering:         "registering",
	StateDone:                "done",
	StateFailed:              "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
