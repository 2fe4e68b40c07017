package model

// Tag is a name/value pair attached to an uploaded object. Tag lists are
// insertion ordered and may contain duplicate names.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
