package model

import "encoding/json"

// UploadStatus is the lifecycle state of a single track upload.
type UploadStatus string

const (
	StatusIdle       UploadStatus = "idle"
	StatusInProgress UploadStatus = "in-progress"
	StatusSuccess    UploadStatus = "success"
	StatusFailed     UploadStatus = "failed"
)

// Terminal reports whether no further transitions happen from s.
func (s UploadStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// UploadResult is the per-track upload state reported to the progress sink.
type UploadResult struct {
	// ContentID is set once the upload succeeds.
	ContentID string

	Status UploadStatus

	// Progress is the upload percentage, 0 to 100.
	Progress float64

	// Registered is true once the content id has been registered with
	// the indexing contract.
	Registered bool
}

// CollectionType is the manifest type of a multi-track release.
const CollectionType = "Collection"

// Collection is the manifest uploaded for multi-track releases. It
// references every track content id in list order.
type Collection struct {
	Type  string   `json:"type"`
	Items []string `json:"items"`
}

// NewCollection returns a collection manifest for the given content ids.
func NewCollection(items []string) Collection {
	return Collection{Type: CollectionType, Items: items}
}

// Encode returns the JSON form of the manifest.
func (c Collection) Encode() ([]byte, error) {
	return json.Marshal(c)
}
