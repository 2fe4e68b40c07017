package upload

import "github.com/radar-music/radar/internal/model"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l ProgressLevel) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	}
	return "info"
}

// ProgressEvent represents an upload progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// State is the release state at the time of the event.
	State State

	// TrackIndex is the track the event refers to, or -1.
	TrackIndex int

	// Result is a snapshot of the track's result when TrackIndex >= 0.
	Result *model.UploadResult
}
