package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/radar-music/radar/internal/audio"
	ioutils "github.com/radar-music/radar/internal/io"
	"github.com/radar-music/radar/internal/model"
)

// DefaultConcurrency is the number of files read in parallel.
const DefaultConcurrency = 4

// Options configures a Loader.
type Options struct {
	// Concurrency bounds parallel file reads. Non-positive means
	// DefaultConcurrency.
	Concurrency int

	// Images normalizes every artwork file when set. Nil uploads artwork
	// exactly as found on disk.
	Images *ioutils.ImageService

	// ArtworkMaxSide is passed to ImageService.Normalize.
	ArtworkMaxSide int

	// ProbeAudio fills empty title, description, genre and artwork of
	// multi-track entries from the MP3's ID3 tag.
	ProbeAudio bool

	// InheritArtwork gives multi-track entries without artwork the
	// release artwork.
	InheritArtwork bool

	Logger *slog.Logger
}

// Loader turns a manifest into a model.Release with every payload in memory.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts Options) *Loader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{opts: opts, logger: logger}
}

// Load reads the manifest at path and every file it references.
//
// The returned release is not normalized or validated; the upload
// assembler does both before any network call.
func (l *Loader) Load(ctx context.Context, path string) (*model.Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return l.Build(ctx, m, filepath.Dir(path))
}

// Build loads the files of an already parsed manifest. Relative paths are
// resolved against dir.
func (l *Loader) Build(ctx context.Context, m *Manifest, dir string) (*model.Release, error) {
	if len(m.Tracks) == 0 {
		return nil, model.ErrNoTracks
	}
	for i, t := range m.Tracks {
		if t.File == "" {
			return nil, &model.ValidationError{Field: fmt.Sprintf("tracks[%d].file", i), Reason: "required"}
		}
	}

	date, err := parseReleaseDate(m.ReleaseDate)
	if err != nil {
		return nil, err
	}

	var license model.License
	if m.License != nil {
		if license, err = m.License.Model(); err != nil {
			return nil, err
		}
	}

	assets, err := l.readAll(ctx, m, dir)
	if err != nil {
		return nil, err
	}
	lookup := func(p string) model.Asset {
		if p == "" {
			return model.Asset{}
		}
		return assets[ioutils.ResolvePath(dir, p)]
	}

	release := &model.Release{
		Title:         m.Title,
		Description:   m.Description,
		Topics:        string(m.Topics),
		Genre:         m.Genre,
		ReleaseDate:   date,
		Artwork:       lookup(m.Artwork),
		License:       license,
		TokenQuantity: m.TokenQuantity,
	}

	for _, t := range m.Tracks {
		release.Tracks = append(release.Tracks, &model.Track{
			Audio: lookup(t.File),
			Metadata: model.TrackMetadata{
				Title:       t.Title,
				Description: t.Description,
				Genre:       t.Genre,
				Artwork:     lookup(t.Artwork),
			},
		})
	}

	// A single track mirrors the release itself.
	if !release.IsCollection() {
		return release, nil
	}

	for i, track := range release.Tracks {
		if l.opts.ProbeAudio {
			l.fillFromTag(ctx, i, track)
		}
		if l.opts.InheritArtwork && track.Metadata.Artwork.IsZero() {
			track.Metadata.Artwork = release.Artwork
		}
	}

	return release, nil
}

// readAll reads each distinct file once.
func (l *Loader) readAll(ctx context.Context, m *Manifest, dir string) (map[string]model.Asset, error) {
	kinds := make(map[string]bool) // path -> is artwork
	add := func(p string, artwork bool) {
		if p != "" {
			kinds[ioutils.ResolvePath(dir, p)] = artwork
		}
	}
	add(m.Artwork, true)
	for _, t := range m.Tracks {
		add(t.File, false)
		add(t.Artwork, true)
	}

	var (
		mu     sync.Mutex
		assets = make(map[string]model.Asset, len(kinds))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	for path, artwork := range kinds {
		g.Go(func() error {
			asset, err := l.readAsset(gctx, path, artwork)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}

			mu.Lock()
			assets[path] = asset
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (l *Loader) readAsset(ctx context.Context, path string, artwork bool) (model.Asset, error) {
	asset, err := ioutils.ReadAsset(ctx, path)
	if err != nil {
		return model.Asset{}, err
	}
	l.logger.Debug("loaded file", "path", path, "bytes", asset.Size(), "content_type", asset.ContentType)

	if artwork {
		return l.normalizeArtwork(ctx, asset)
	}
	return asset, nil
}

func (l *Loader) normalizeArtwork(ctx context.Context, asset model.Asset) (model.Asset, error) {
	if l.opts.Images == nil {
		return asset, nil
	}
	return l.opts.Images.Normalize(ctx, asset, l.opts.ArtworkMaxSide)
}

// fillFromTag copies ID3 fields into empty metadata. Unreadable tags are
// logged and ignored.
func (l *Loader) fillFromTag(ctx context.Context, index int, track *model.Track) {
	if track.Audio.ContentType != "audio/mpeg" {
		return
	}

	info, err := audio.Probe(track.Audio.Data)
	if err != nil {
		l.logger.Warn("ignoring unreadable ID3 tag", "track", index, "file", track.Audio.Name, "error", err)
		return
	}

	meta := &track.Metadata
	if meta.Title == "" {
		meta.Title = info.Title
	}
	if meta.Description == "" {
		meta.Description = info.Comment
	}
	if meta.Genre == "" {
		meta.Genre = info.Genre
	}
	if meta.Artwork.IsZero() && !info.Cover.IsZero() {
		cover, err := l.normalizeArtwork(ctx, info.Cover)
		if err != nil {
			l.logger.Warn("ignoring embedded cover", "track", index, "file", track.Audio.Name, "error", err)
			return
		}
		meta.Artwork = cover
	}
}
