package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/journal"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/registry"
	"github.com/radar-music/radar/internal/tags"
)

var errTransport = errors.New("HTTP 500: 500 Internal Server Error")

type uploadCall struct {
	data []byte
	tags []model.Tag
}

// fakeBackend assigns sequential ids and fails the payloads matched by
// failOn.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []uploadCall
	failOn func(data []byte) bool
}

func (f *fakeBackend) Upload(ctx context.Context, data []byte, tags []model.Tag, onProgress backend.ProgressFunc) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, uploadCall{data: data, tags: tags})
	n := len(f.calls)
	f.mu.Unlock()

	if f.failOn != nil && f.failOn(data) {
		return "", errTransport
	}
	if onProgress != nil {
		for _, p := range []float64{25, 50, 100} {
			onProgress(backend.Progress{Percent: p, Total: int64(len(data))})
		}
	}
	return fmt.Sprintf("id-%d", n), nil
}

func (f *fakeBackend) uploadsOf(data []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if bytes.Equal(c.data, data) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) hasCollection() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		for _, tag := range c.tags {
			if tag.Name == tags.NameDataProtocol && tag.Value == tags.CollectionProtocol {
				return true
			}
		}
	}
	return false
}

type fakeRegistrar struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
}

func (f *fakeRegistrar) Register(ctx context.Context, contentID, node string) (*registry.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, contentID)
	if f.failOn[contentID] {
		return nil, errors.New("gateway unavailable")
	}
	return &registry.Registration{ContractTxID: contentID}, nil
}

type fakeJournal struct {
	items      []journal.Item
	registered []string
	final      string
}

func (f *fakeJournal) BeginRelease(context.Context, string, string, string, string) (int64, error) {
	return 1, nil
}
func (f *fakeJournal) RecordItem(_ context.Context, item journal.Item) error {
	f.items = append(f.items, item)
	return nil
}
func (f *fakeJournal) MarkRegistered(_ context.Context, id string) error {
	f.registered = append(f.registered, id)
	return nil
}
func (f *fakeJournal) FinishRelease(_ context.Context, _ int64, state string) error {
	f.final = state
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var cover = model.Asset{Data: []byte("cover"), ContentType: "image/png"}

func newRelease(n int) *model.Release {
	release := &model.Release{
		Title:       "Night Drives",
		Description: "Tape recordings",
		Genre:       "electronic",
		Artwork:     cover,
	}
	for i := 0; i < n; i++ {
		release.Tracks = append(release.Tracks, &model.Track{
			Audio: model.Asset{Data: []byte(fmt.Sprintf("audio-%d", i)), ContentType: "audio/mpeg"},
			Metadata: model.TrackMetadata{
				Title:       fmt.Sprintf("Track %d", i),
				Description: "desc",
				Artwork:     cover,
			},
		})
	}
	return release
}

func thumbnail(t *testing.T, call uploadCall) string {
	t.Helper()
	for _, tag := range call.tags {
		if tag.Name == tags.NameThumbnail {
			return tag.Value
		}
	}
	t.Fatal("no Thumbnail tag")
	return ""
}

func TestOrchestrator_ArtworkReuse(t *testing.T) {
	b := &fakeBackend{}
	o := NewOrchestrator(b, discard, nil)

	release := newRelease(2)
	release.Tracks[1].Metadata.Artwork = model.Asset{Data: []byte("own cover"), ContentType: "image/jpeg"}

	ids, err := o.UploadTracks(context.Background(), release, Options{Address: "addr"}, "release-art")
	if err != nil {
		t.Fatalf("UploadTracks() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}

	// Track 0 reuses the release artwork, track 1 uploads its own first.
	if got := thumbnail(t, b.calls[0]); got != "release-art" {
		t.Errorf("track 0 Thumbnail = %q, want release-art", got)
	}
	if b.uploadsOf(cover.Data) != 0 {
		t.Error("shared artwork should not be uploaded again")
	}
	if b.uploadsOf([]byte("own cover")) != 1 {
		t.Error("track artwork should be uploaded once")
	}
	if !reflect.DeepEqual(b.calls[1].tags, []model.Tag{{Name: "Content-Type", Value: "image/jpeg"}}) {
		t.Errorf("artwork tags = %v", b.calls[1].tags)
	}
	if got := thumbnail(t, b.calls[2]); got != "id-2" {
		t.Errorf("track 1 Thumbnail = %q, want id-2", got)
	}
}

func TestOrchestrator_ResultTransitions(t *testing.T) {
	b := &fakeBackend{}
	var statuses []model.UploadStatus
	var progress []float64
	o := NewOrchestrator(b, discard, func(e ProgressEvent) {
		if e.TrackIndex == 0 && e.Result != nil {
			statuses = append(statuses, e.Result.Status)
			progress = append(progress, e.Result.Progress)
		}
	})

	if _, err := o.UploadTracks(context.Background(), newRelease(1), Options{Address: "addr"}, "art"); err != nil {
		t.Fatal(err)
	}

	if statuses[0] != model.StatusIdle {
		t.Errorf("first status = %s, want idle", statuses[0])
	}
	if statuses[len(statuses)-1] != model.StatusSuccess {
		t.Errorf("last status = %s, want success", statuses[len(statuses)-1])
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress decreased: %v", progress)
		}
	}

	got := o.Results()[0]
	want := model.UploadResult{ContentID: "id-1", Status: model.StatusSuccess, Progress: 100}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
}

func TestOrchestrator_AbortOnFailure(t *testing.T) {
	for failAt := 0; failAt < 3; failAt++ {
		t.Run(fmt.Sprintf("fail at %d", failAt), func(t *testing.T) {
			failing := []byte(fmt.Sprintf("audio-%d", failAt))
			b := &fakeBackend{failOn: func(data []byte) bool { return bytes.Equal(data, failing) }}
			o := NewOrchestrator(b, discard, nil)

			ids, err := o.UploadTracks(context.Background(), newRelease(3), Options{Address: "addr"}, "art")

			var terr *TrackError
			if !errors.As(err, &terr) || terr.Index != failAt {
				t.Fatalf("error = %v, want *TrackError for index %d", err, failAt)
			}
			if !errors.Is(err, errTransport) {
				t.Errorf("error should wrap the backend error")
			}
			if len(ids) != failAt {
				t.Errorf("got %d ids, want %d", len(ids), failAt)
			}
			for i := failAt + 1; i < 3; i++ {
				if b.uploadsOf([]byte(fmt.Sprintf("audio-%d", i))) != 0 {
					t.Errorf("track %d should never be attempted", i)
				}
			}

			results := o.Results()
			if results[failAt].Status != model.StatusFailed {
				t.Errorf("failed track status = %s", results[failAt].Status)
			}
			for i := failAt + 1; i < 3; i++ {
				if results[i].Status != model.StatusIdle {
					t.Errorf("track %d status = %s, want idle", i, results[i].Status)
				}
			}
		})
	}
}

func TestAssembler_SingleTrack(t *testing.T) {
	b := &fakeBackend{}
	reg := &fakeRegistrar{}
	j := &fakeJournal{}
	var states []State
	a := NewAssembler(Config{
		Backend:   b,
		Registrar: reg,
		Journal:   j,
		Logger:    discard,
		OnProgress: func(e ProgressEvent) {
			if e.TrackIndex < 0 && (len(states) == 0 || states[len(states)-1] != e.State) {
				states = append(states, e.State)
			}
		},
	})

	release := newRelease(1)
	release.Tracks[0].Metadata = model.TrackMetadata{}

	outcome, err := a.Upload(context.Background(), release, Options{Address: "addr", Provider: backend.ProviderIrys, Node: "node2"})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if b.hasCollection() {
		t.Error("single-track release should not upload a collection")
	}
	if b.callCount() != 2 {
		t.Errorf("backend calls = %d, want 2 (artwork + track)", b.callCount())
	}
	if outcome.CollectionID != "" {
		t.Errorf("CollectionID = %q, want empty", outcome.CollectionID)
	}
	if got := thumbnail(t, b.calls[1]); got != outcome.ArtworkID {
		t.Errorf("Thumbnail = %q, want release artwork id %q", got, outcome.ArtworkID)
	}
	if release.Tracks[0].Metadata.Title != "Night Drives" {
		t.Errorf("single track title not mirrored: %q", release.Tracks[0].Metadata.Title)
	}

	wantStates := []State{StateArtworkUploading, StateTracksUploading, StateRegistering, StateDone}
	if !reflect.DeepEqual(states, wantStates) {
		t.Errorf("states = %v, want %v", states, wantStates)
	}
	if a.State() != StateDone {
		t.Errorf("State() = %s", a.State())
	}
	if outcome.Registered() != 1 || !outcome.Results[0].Registered {
		t.Errorf("results = %+v, want registered", outcome.Results)
	}
	if j.final != "done" || len(j.items) != 2 || !reflect.DeepEqual(j.registered, outcome.TrackIDs) {
		t.Errorf("journal = %+v", j)
	}
}

func TestAssembler_Collection(t *testing.T) {
	b := &fakeBackend{}
	a := NewAssembler(Config{Backend: b, Registrar: &fakeRegistrar{}, Logger: discard})

	outcome, err := a.Upload(context.Background(), newRelease(3), Options{Address: "addr"})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !b.hasCollection() {
		t.Fatal("multi-track release should upload a collection")
	}

	last := b.calls[len(b.calls)-1]
	want := fmt.Sprintf(`{"type":"Collection","items":["%s","%s","%s"]}`, outcome.TrackIDs[0], outcome.TrackIDs[1], outcome.TrackIDs[2])
	if string(last.data) != want {
		t.Errorf("collection = %s, want %s", last.data, want)
	}
	wantTags := []model.Tag{
		{Name: "Data-Protocol", Value: "Collection"},
		{Name: "Collection-Type", Value: "audio"},
		{Name: "Title", Value: "Night Drives"},
		{Name: "Description", Value: "Tape recordings"},
	}
	if !reflect.DeepEqual(last.tags, wantTags) {
		t.Errorf("collection tags = %v", last.tags)
	}
	if outcome.CollectionID == "" {
		t.Error("CollectionID should be set")
	}
}

func TestAssembler_TrackFailure(t *testing.T) {
	b := &fakeBackend{failOn: func(data []byte) bool { return bytes.Equal(data, []byte("audio-1")) }}
	reg := &fakeRegistrar{}
	j := &fakeJournal{}
	a := NewAssembler(Config{Backend: b, Registrar: reg, Journal: j, Logger: discard})

	outcome, err := a.Upload(context.Background(), newRelease(3), Options{Address: "addr"})

	var serr *StepError
	if !errors.As(err, &serr) || serr.State != StateTracksUploading {
		t.Fatalf("error = %v, want StepError in tracks-uploading", err)
	}
	if len(outcome.TrackIDs) != 1 {
		t.Errorf("got %d track ids, want 1", len(outcome.TrackIDs))
	}
	if outcome.Results[1].Status != model.StatusFailed {
		t.Errorf("track 1 status = %s, want failed", outcome.Results[1].Status)
	}
	if b.uploadsOf([]byte("audio-2")) != 0 {
		t.Error("track 2 should never be attempted")
	}
	if b.hasCollection() {
		t.Error("collection should not be uploaded after a failure")
	}
	if len(reg.calls) != 0 {
		t.Errorf("registration attempted after failure: %v", reg.calls)
	}
	if a.State() != StateFailed || j.final != "failed" {
		t.Errorf("state = %s, journal = %q", a.State(), j.final)
	}
}

func TestAssembler_ArtworkFailure(t *testing.T) {
	b := &fakeBackend{failOn: func(data []byte) bool { return bytes.Equal(data, cover.Data) }}
	a := NewAssembler(Config{Backend: b, Logger: discard})

	_, err := a.Upload(context.Background(), newRelease(2), Options{Address: "addr"})

	var serr *StepError
	if !errors.As(err, &serr) || serr.State != StateArtworkUploading {
		t.Fatalf("error = %v, want StepError in artwork-uploading", err)
	}
	if b.callCount() != 1 {
		t.Errorf("backend calls = %d, want 1", b.callCount())
	}
}

func TestAssembler_RegistrationIndependence(t *testing.T) {
	b := &fakeBackend{}
	reg := &fakeRegistrar{failOn: map[string]bool{"id-2": true}}
	a := NewAssembler(Config{Backend: b, Registrar: reg, Logger: discard})

	outcome, err := a.Upload(context.Background(), newRelease(3), Options{Address: "addr"})
	if err != nil {
		t.Fatalf("Upload() error = %v, registration failures must not fail the release", err)
	}
	if !reflect.DeepEqual(reg.calls, outcome.TrackIDs) {
		t.Errorf("registered %v, want every track id %v", reg.calls, outcome.TrackIDs)
	}

	for i, r := range outcome.Results {
		want := r.ContentID != "id-2"
		if r.Registered != want {
			t.Errorf("track %d (%s) registered = %v, want %v", i, r.ContentID, r.Registered, want)
		}
	}
	if a.State() != StateDone {
		t.Errorf("State() = %s, want done", a.State())
	}
}

func TestAssembler_NoWallet(t *testing.T) {
	b := &fakeBackend{}
	a := NewAssembler(Config{Backend: b, Logger: discard})

	if _, err := a.Upload(context.Background(), newRelease(1), Options{}); !errors.Is(err, ErrNoWallet) {
		t.Errorf("error = %v, want ErrNoWallet", err)
	}
	if b.callCount() != 0 {
		t.Error("no network call should happen without a wallet")
	}
}

func TestAssembler_ValidationBeforeNetwork(t *testing.T) {
	b := &fakeBackend{}
	a := NewAssembler(Config{Backend: b, Logger: discard})

	release := newRelease(2)
	release.Tracks[1].Metadata.Description = ""

	_, err := a.Upload(context.Background(), release, Options{Address: "addr"})

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *model.ValidationError", err)
	}
	if b.callCount() != 0 {
		t.Error("no network call should happen for an invalid release")
	}
	if a.State() != StateNotStarted {
		t.Errorf("State() = %s, want not-started", a.State())
	}
}

func TestState_String(t *testing.T) {
	if StateCollectionUploading.String() != "collection-uploading" {
		t.Errorf("String() = %q", StateCollectionUploading.String())
	}
	if State(99).String() != "unknown" {
		t.Errorf("String() = %q", State(99).String())
	}
	if !StateFailed.Terminal() || StateRegistering.Terminal() {
		t.Error("Terminal() mismatch")
	}
}
