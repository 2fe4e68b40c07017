package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/journal"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/registry"
	"github.com/radar-music/radar/internal/tags"
)

// Registrar registers uploaded content ids as assets.
type Registrar interface {
	Register(ctx context.Context, contentID, node string) (*registry.Registration, error)
}

// Journal records published items. *journal.Journal implements it.
type Journal interface {
	BeginRelease(ctx context.Context, title, provider, node, address string) (int64, error)
	RecordItem(ctx context.Context, item journal.Item) error
	MarkRegistered(ctx context.Context, contentID string) error
	FinishRelease(ctx context.Context, releaseID int64, state string) error
}

// Config configures an Assembler.
type Config struct {
	// Backend uploads every object. Required.
	Backend backend.Backend

	// Registrar registers track content ids. If nil, registration is
	// skipped.
	Registrar Registrar

	// Journal records published items. Optional.
	Journal Journal

	Logger     *slog.Logger
	OnProgress func(ProgressEvent)
}

// Outcome summarizes a release upload.
type Outcome struct {
	ArtworkID string
	TrackIDs  []string

	// CollectionID is empty for single-track releases.
	CollectionID string

	// Results holds the final per-track results.
	Results []model.UploadResult
}

// Registered returns the number of registered tracks.
func (o *Outcome) Registered() int {
	n := 0
	for _, r := range o.Results {
		if r.Registered {
			n++
		}
	}
	return n
}

// Assembler publishes a complete release.
type Assembler struct {
	backend      backend.Backend
	registrar    Registrar
	journal      Journal
	logger       *slog.Logger
	onProgress   func(ProgressEvent)
	orchestrator *Orchestrator

	mu    sync.RWMutex
	state State

	releaseID int64
}

// NewAssembler creates an Assembler.
func NewAssembler(cfg Config) *Assembler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{
		backend:    cfg.Backend,
		registrar:  cfg.Registrar,
		journal:    cfg.Journal,
		logger:     logger,
		onProgress: cfg.OnProgress,
	}
	a.orchestrator = NewOrchestrator(cfg.Backend, logger, cfg.OnProgress)
	return a
}

// State returns the current release state.
func (a *Assembler) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Results returns a snapshot of the per-track results.
func (a *Assembler) Results() []model.UploadResult {
	return a.orchestrator.Results()
}

// Upload publishes release.
//
// The release is normalized and validated before any network call. The
// release artwork is uploaded first, then every track, then the
// collection manifest when the release has more than one track. Track
// content ids are then registered one at a time; registration failures
// are reported as warnings and do not fail the upload.
//
// On failure, the returned Outcome holds whatever was published before
// the failing step.
func (a *Assembler) Upload(ctx context.Context, release *model.Release, opts Options) (*Outcome, error) {
	if opts.Address == "" {
		return nil, ErrNoWallet
	}

	release.Normalize()
	if err := release.Validate(); err != nil {
		return nil, err
	}

	a.beginJournal(ctx, release, opts)
	outcome := &Outcome{}

	// Release artwork.
	a.setState(StateArtworkUploading, fmt.Sprintf("Uploading artwork for %s", release.Title))
	artworkID, err := a.backend.Upload(ctx, release.Artwork.Data, tags.ArtworkTags(release.Artwork), nil)
	if err != nil {
		return outcome, a.fail(ctx, StateArtworkUploading, err)
	}
	outcome.ArtworkID = artworkID
	a.record(ctx, journal.KindArtwork, -1, release.Title, artworkID, release.Artwork.Data)
	a.logger.Info("release artwork uploaded", "release", release.Title, "id", artworkID)

	// Tracks.
	a.setState(StateTracksUploading, fmt.Sprintf("Uploading %d tracks", len(release.Tracks)))
	a.orchestrator.onTrack = func(index int, id string, data []byte) {
		a.record(ctx, journal.KindTrack, index, release.Tracks[index].Metadata.Title, id, data)
	}
	trackIDs, err := a.orchestrator.UploadTracks(ctx, release, opts, artworkID)
	outcome.TrackIDs = trackIDs
	outcome.Results = a.orchestrator.Results()
	if err != nil {
		return outcome, a.fail(ctx, StateTracksUploading, err)
	}

	// Collection manifest.
	if len(trackIDs) > 1 {
		a.setState(StateCollectionUploading, "Uploading collection manifest")
		manifest, err := model.NewCollection(trackIDs).Encode()
		if err != nil {
			return outcome, a.fail(ctx, StateCollectionUploading, err)
		}
		collectionID, err := a.backend.Upload(ctx, manifest, tags.CollectionTags(release), nil)
		if err != nil {
			return outcome, a.fail(ctx, StateCollectionUploading, err)
		}
		outcome.CollectionID = collectionID
		a.record(ctx, journal.KindCollection, -1, release.Title, collectionID, manifest)
		a.logger.Info("collection uploaded", "release", release.Title, "id", collectionID, "items", len(trackIDs))
	}

	// Registration.
	a.setState(StateRegistering, "Registering assets")
	a.register(ctx, trackIDs, opts.Node)
	outcome.Results = a.orchestrator.Results()

	a.setState(StateDone, fmt.Sprintf("Published %s", release.Title))
	a.finishJournal(ctx, StateDone)
	a.emit(ProgressEvent{Message: fmt.Sprintf("Successfully published: %s", release.Title), Level: LevelSuccess, State: StateDone, TrackIndex: -1})

	return outcome, nil
}

// register registers each id in order. A failure is logged and the
// remaining ids are still attempted.
func (a *Assembler) register(ctx context.Context, ids []string, node string) {
	if a.registrar == nil {
		a.logger.Debug("no registrar configured, skipping registration")
		return
	}

	for i, id := range ids {
		reg, err := a.registrar.Register(ctx, id, node)
		if err != nil {
			a.logger.Warn("asset registration failed", "index", i, "id", id, "error", err)
			a.emit(ProgressEvent{
				Message:    fmt.Sprintf("Registration failed for %s: %v", id, err),
				Level:      LevelWarning,
				State:      StateRegistering,
				TrackIndex: i,
				Result:     a.orchestrator.result(i),
			})
			continue
		}

		a.orchestrator.MarkRegistered(i)
		if a.journal != nil {
			if err := a.journal.MarkRegistered(ctx, id); err != nil {
				a.logger.Warn("journal update failed", "id", id, "error", err)
			}
		}
		a.logger.Info("asset registered", "index", i, "id", id, "contract", reg.ContractTxID)
		a.emit(ProgressEvent{
			Message:    fmt.Sprintf("Registered: %s", id),
			Level:      LevelVerbose,
			State:      StateRegistering,
			TrackIndex: i,
			Result:     a.orchestrator.result(i),
		})
	}
}

func (a *Assembler) fail(ctx context.Context, step State, err error) error {
	a.logger.Error("release upload failed", "step", step.String(), "error", err)
	a.setState(StateFailed, fmt.Sprintf("Upload failed during %s: %v", step, err))
	a.finishJournal(ctx, StateFailed)
	return &StepError{State: step, Err: err}
}

func (a *Assembler) setState(s State, message string) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()

	level := LevelInfo
	if s == StateFailed {
		level = LevelError
	}
	a.emit(ProgressEvent{Message: message, Level: level, State: s, TrackIndex: -1})
}

func (a *Assembler) emit(event ProgressEvent) {
	if a.onProgress != nil {
		a.onProgress(event)
	}
}

func (a *Assembler) beginJournal(ctx context.Context, release *model.Release, opts Options) {
	a.releaseID = 0
	if a.journal == nil {
		return
	}
	id, err := a.journal.BeginRelease(ctx, release.Title, string(opts.Provider), opts.Node, opts.Address)
	if err != nil {
		a.logger.Warn("journal begin failed", "error", err)
		return
	}
	a.releaseID = id
}

func (a *Assembler) record(ctx context.Context, kind journal.Kind, index int, title, id string, data []byte) {
	if a.journal == nil || a.releaseID == 0 {
		return
	}
	err := a.journal.RecordItem(ctx, journal.Item{
		ContentID: id,
		ReleaseID: a.releaseID,
		Kind:      kind,
		Index:     index,
		Title:     title,
		Digest:    journal.Digest(data),
		Size:      int64(len(data)),
	})
	if err != nil {
		a.logger.Warn("journal record failed", "id", id, "error", err)
	}
}

func (a *Assembler) finishJournal(ctx context.Context, s State) {
	if a.journal == nil || a.releaseID == 0 {
		return
	}
	// Record the final state even when ctx was cancelled.
	if err := a.journal.FinishRelease(context.WithoutCancel(ctx), a.releaseID, s.String()); err != nil {
		a.logger.Warn("journal finish failed", "error", err)
	}
}
