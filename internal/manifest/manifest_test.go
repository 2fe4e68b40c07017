package manifest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2"

	ioutils "github.com/radar-music/radar/internal/io"
	"github.com/radar-music/radar/internal/model"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func pngBytes(t *testing.T, side int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, side, side))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mp3Bytes(t *testing.T, title, genre string, cover []byte) []byte {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	if title != "" {
		tag.SetTitle(title)
	}
	if genre != "" {
		tag.SetGenre(genre)
	}
	if cover != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/png",
			PictureType: id3v2.PTFrontCover,
			Description: "cover",
			Picture:     cover,
		})
	}

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x64})
	buf.Write(make([]byte, 128))
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
title: Night Drives
description: Tape recordings
topics: [lofi, late night]
releaseDate: 2024-05-01
artwork: cover.png
license:
  type: noncommercial
  derivation: with-revenue-share
  revShare: 10
tracks:
  - file: a.mp3
    title: A
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if m.Title != "Night Drives" || m.Artwork != "cover.png" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if m.Topics != "lofi,late night" {
		t.Errorf("Topics = %q, want %q", m.Topics, "lofi,late night")
	}
	if m.ReleaseDate != "2024-05-01" {
		t.Errorf("ReleaseDate = %q", m.ReleaseDate)
	}
	if len(m.Tracks) != 1 || m.Tracks[0].File != "a.mp3" {
		t.Errorf("Tracks = %+v", m.Tracks)
	}

	lic, err := m.License.Model()
	if err != nil {
		t.Fatal(err)
	}
	want := model.Noncommercial{Derivation: model.RevenueShare{Percent: 10}}
	if lic != want {
		t.Errorf("License = %#v, want %#v", lic, want)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty manifest error = %v, want ErrEmpty", err)
	}
	if _, err := Parse([]byte("title: x\ndescripton: typo\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestTopics_String(t *testing.T) {
	m, err := Parse([]byte("topics: \"lofi, tape\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Topics != "lofi, tape" {
		t.Errorf("Topics = %q", m.Topics)
	}
}

func TestLicense_Model(t *testing.T) {
	tests := []struct {
		name      string
		in        License
		want      model.License
		wantField string
	}{
		{name: "public use", in: License{Type: "public-use"}, want: model.PublicUse{}},
		{name: "attribution", in: License{Type: "attribution"}, want: model.Attribution{}},
		{
			name: "allowed with fee",
			in: License{
				Type: "allowed", Commercial: "with-fee", Fee: 0.25, Recurrence: "one-time",
				Currency: "U", PaymentMode: "random", Derivation: "with-indication",
			},
			want: model.Allowed{
				Commercial: model.CommercialWithFee{
					Fee: 0.25, Recurrence: model.RecurrenceOneTime,
					Currency: model.CurrencyU, PaymentMode: model.PaymentRandom,
				},
				Derivation: model.DerivationWithIndication,
			},
		},
		{
			name: "allowed with credit",
			in:   License{Type: "allowed", Commercial: "with-credit", Derivation: "with-credit"},
			want: model.Allowed{Commercial: model.CommercialWithCredit{}, Derivation: model.DerivationWithCredit},
		},
		{
			name: "allowed without commercial term",
			in:   License{Type: "allowed", Derivation: "with-credit"},
			want: model.Allowed{Derivation: model.DerivationWithCredit},
		},
		{name: "unknown type", in: License{Type: "cc-by"}, wantField: "license.type"},
		{name: "unknown commercial", in: License{Type: "allowed", Commercial: "free"}, wantField: "license.commercial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Model()
			if tt.wantField != "" {
				var verr *model.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Fatalf("Model() error = %v, want field %q", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("Model() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Model() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLoader_LoadSingleTrack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cover.png", pngBytes(t, 8))
	writeFile(t, dir, "tracks/a.mp3", mp3Bytes(t, "From Tag", "", nil))
	writeFile(t, dir, "release.yaml", []byte(`
title: Night Drives
description: Tape recordings
genre: electronic
releaseDate: 2024-05-01
artwork: cover.png
tracks:
  - file: tracks/a.mp3
`))

	loader := NewLoader(Options{ProbeAudio: true, InheritArtwork: true})
	release, err := loader.Load(context.Background(), filepath.Join(dir, "release.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if release.Artwork.ContentType != "image/png" {
		t.Errorf("artwork content type = %q", release.Artwork.ContentType)
	}
	if got := release.Tracks[0].Audio.ContentType; got != "audio/mpeg" {
		t.Errorf("audio content type = %q, want audio/mpeg", got)
	}
	if !release.ReleaseDate.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ReleaseDate = %v", release.ReleaseDate)
	}

	// Single tracks mirror the release, so the ID3 title is not used.
	if release.Tracks[0].Metadata.Title != "" {
		t.Errorf("Title = %q, want empty before Normalize", release.Tracks[0].Metadata.Title)
	}
	release.Normalize()
	if err := release.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	if release.Tracks[0].Metadata.Title != "Night Drives" {
		t.Errorf("normalized Title = %q", release.Tracks[0].Metadata.Title)
	}
}

func TestLoader_MultiTrackFillsFromTags(t *testing.T) {
	dir := t.TempDir()
	cover := pngBytes(t, 8)
	embedded := pngBytes(t, 3)
	writeFile(t, dir, "cover.png", cover)
	writeFile(t, dir, "a.mp3", mp3Bytes(t, "Tag Title", "(52)Electronic", embedded))
	writeFile(t, dir, "b.mp3", mp3Bytes(t, "", "", nil))

	m := &Manifest{
		Title:       "Release",
		Description: "Desc",
		Artwork:     "cover.png",
		Tracks: []Track{
			{File: "a.mp3", Description: "first"},
			{File: "b.mp3", Title: "B", Description: "second", Artwork: "cover.png"},
		},
	}

	loader := NewLoader(Options{ProbeAudio: true, InheritArtwork: true, Concurrency: 1})
	release, err := loader.Build(context.Background(), m, dir)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	a := release.Tracks[0].Metadata
	if a.Title != "Tag Title" || a.Genre != "Electronic" {
		t.Errorf("track a = %+v", a)
	}
	if !bytes.Equal(a.Artwork.Data, embedded) {
		t.Error("track a should use its embedded cover")
	}

	b := release.Tracks[1].Metadata
	if !b.Artwork.SameBytes(release.Artwork) {
		t.Error("track b should share the release artwork")
	}
	if b.Title != "B" {
		t.Errorf("explicit title overwritten: %q", b.Title)
	}
}

func TestLoader_InheritArtworkDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cover.png", pngBytes(t, 4))
	writeFile(t, dir, "a.mp3", mp3Bytes(t, "", "", nil))
	writeFile(t, dir, "b.mp3", mp3Bytes(t, "", "", nil))

	m := &Manifest{Title: "R", Artwork: "cover.png", Tracks: []Track{{File: "a.mp3"}, {File: "b.mp3"}}}
	release, err := NewLoader(Options{}).Build(context.Background(), m, dir)
	if err != nil {
		t.Fatal(err)
	}
	for i, track := range release.Tracks {
		if !track.Metadata.Artwork.IsZero() {
			t.Errorf("track %d artwork should stay empty", i)
		}
	}
}

func TestLoader_NormalizesArtwork(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cover.png", pngBytes(t, 40))
	writeFile(t, dir, "a.mp3", mp3Bytes(t, "", "", nil))

	m := &Manifest{Title: "R", Artwork: "cover.png", Tracks: []Track{{File: "a.mp3"}}}
	loader := NewLoader(Options{Images: ioutils.NewImageService(), ArtworkMaxSide: 16})
	release, err := loader.Build(context.Background(), m, dir)
	if err != nil {
		t.Fatal(err)
	}
	if release.Artwork.ContentType != "image/jpeg" {
		t.Errorf("artwork content type = %q, want image/jpeg", release.Artwork.ContentType)
	}
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3", mp3Bytes(t, "", "", nil))

	tests := []struct {
		name      string
		m         *Manifest
		wantErr   error
		wantField string
	}{
		{name: "no tracks", m: &Manifest{Title: "R"}, wantErr: model.ErrNoTracks},
		{name: "missing file", m: &Manifest{Tracks: []Track{{File: "a.mp3"}, {}}}, wantField: "tracks[1].file"},
		{name: "bad date", m: &Manifest{ReleaseDate: "May 1st", Tracks: []Track{{File: "a.mp3"}}}, wantField: "releaseDate"},
		{name: "file not found", m: &Manifest{Tracks: []Track{{File: "missing.mp3"}}}, wantErr: os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(Options{}).Build(context.Background(), tt.m, dir)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var verr *model.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.wantField {
				t.Errorf("Build() error = %v, want field %q", err, tt.wantField)
			}
		})
	}
}
