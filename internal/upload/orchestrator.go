package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/tags"
)

// Options carries the per-upload configuration.
type Options struct {
	// Address is the active wallet address. Required.
	Address string

	// Provider is the upload backend in use. It is recorded in the
	// journal.
	Provider backend.Provider

	// Node is the bundling node name passed to the registry.
	Node string
}

// Orchestrator uploads the tracks of a release one at a time.
type Orchestrator struct {
	backend backend.Backend
	logger  *slog.Logger

	onProgress func(ProgressEvent)
	onTrack    func(index int, contentID string, data []byte)

	mu      sync.RWMutex
	results []model.UploadResult
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(b backend.Backend, logger *slog.Logger, onProgress func(ProgressEvent)) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{backend: b, logger: logger, onProgress: onProgress}
}

// UploadTracks uploads every track of release in list order and returns
// the content ids of the tracks that succeeded.
//
// For each track, the release artwork id is reused when the track's
// artwork bytes equal the release artwork; otherwise the track artwork
// is uploaded first. The first failure marks that track failed, stops
// the loop and is returned along with the ids collected so far.
func (o *Orchestrator) UploadTracks(ctx context.Context, release *model.Release, opts Options, releaseArtworkID string) ([]string, error) {
	o.reset(len(release.Tracks))

	ids := make([]string, 0, len(release.Tracks))
	for i, track := range release.Tracks {
		id, err := o.uploadTrack(ctx, release, track, i, opts, releaseArtworkID)
		if err != nil {
			o.update(i, func(r *model.UploadResult) { r.Status = model.StatusFailed })
			o.logger.Error("track upload failed", "index", i, "title", track.Metadata.Title, "error", err)
			o.progress(i, fmt.Sprintf("Failed: %s: %v", track.Metadata.Title, err), LevelError)
			return ids, &TrackError{Index: i, Title: track.Metadata.Title, Err: err}
		}

		ids = append(ids, id)
		o.update(i, func(r *model.UploadResult) {
			r.ContentID = id
			r.Status = model.StatusSuccess
			r.Progress = 100
		})
		o.logger.Info("track uploaded", "index", i, "title", track.Metadata.Title, "id", id)
		o.progress(i, fmt.Sprintf("Uploaded: %s (%s)", track.Metadata.Title, id), LevelSuccess)

		if o.onTrack != nil {
			o.onTrack(i, id, track.Audio.Data)
		}
	}

	return ids, nil
}

func (o *Orchestrator) uploadTrack(ctx context.Context, release *model.Release, track *model.Track, index int, opts Options, releaseArtworkID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	artworkID, err := o.resolveArtwork(ctx, release, track, index, releaseArtworkID)
	if err != nil {
		return "", fmt.Errorf("artwork: %w", err)
	}

	trackTags := tags.BuildTrackTags(release, track, opts.Address, artworkID)
	o.progress(index, fmt.Sprintf("Uploading: %s", track.Metadata.Title), LevelVerbose)

	return o.backend.Upload(ctx, track.Audio.Data, trackTags, func(p backend.Progress) {
		o.update(index, func(r *model.UploadResult) {
			if r.Status == model.StatusIdle {
				r.Status = model.StatusInProgress
			}
			if p.Percent > r.Progress {
				r.Progress = p.Percent
			}
		})
		o.progress(index, fmt.Sprintf("%s: %.0f%%", track.Metadata.Title, p.Percent), LevelVerbose)
	})
}

func (o *Orchestrator) resolveArtwork(ctx context.Context, release *model.Release, track *model.Track, index int, releaseArtworkID string) (string, error) {
	artwork := track.Metadata.Artwork
	if artwork.SameBytes(release.Artwork) {
		return releaseArtworkID, nil
	}
	if artwork.IsZero() {
		return "", errors.New("track has no artwork")
	}

	id, err := o.backend.Upload(ctx, artwork.Data, tags.ArtworkTags(artwork), nil)
	if err != nil {
		return "", err
	}
	o.logger.Info("track artwork uploaded", "index", index, "id", id)
	o.progress(index, fmt.Sprintf("Uploaded artwork for %s", track.Metadata.Title), LevelVerbose)
	return id, nil
}

// Results returns a snapshot of the per-track results.
func (o *Orchestrator) Results() []model.UploadResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]model.UploadResult, len(o.results))
	copy(out, o.results)
	return out
}

// MarkRegistered flags the track at index as registered.
func (o *Orchestrator) MarkRegistered(index int) {
	o.update(index, func(r *model.UploadResult) { r.Registered = true })
}

func (o *Orchestrator) reset(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = make([]model.UploadResult, n)
	for i := range o.results {
		o.results[i].Status = model.StatusIdle
	}
}

func (o *Orchestrator) update(index int, fn func(*model.UploadResult)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if index >= 0 && index < len(o.results) {
		fn(&o.results[index])
	}
}

func (o *Orchestrator) result(index int) *model.UploadResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if index < 0 || index >= len(o.results) {
		return nil
	}
	r := o.results[index]
	return &r
}

func (o *Orchestrator) progress(index int, message string, level ProgressLevel) {
	if o.onProgress != nil {
		o.onProgress(ProgressEvent{
			Message:    message,
			Level:      level,
			State:      StateTracksUploading,
			TrackIndex: index,
			Result:     o.result(index),
		})
	}
}
