package audio

import (
	"bytes"
	"testing"

	"github.com/bogem/id3v2"
)

func taggedMP3(t *testing.T, build func(tag *id3v2.Tag)) []byte {
	t.Helper()
	tag := id3v2.NewEmptyTag()
	build(tag)

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	// Fake MPEG frame sync after the tag.
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x00})
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	data := taggedMP3(t, func(tag *id3v2.Tag) {
		tag.SetTitle("Night Drive")
		tag.SetArtist("Radar Band")
		tag.SetAlbum("Tapes")
		tag.SetGenre("(52)Electronic")
		tag.SetYear("2024")
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     "recorded live",
		})
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/png",
			PictureType: id3v2.PTOther,
			Description: "back",
			Picture:     []byte{9, 9},
		})
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "front",
			Picture:     []byte{1, 2, 3},
		})
	})

	info, err := Probe(data)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}

	if info.Title != "Night Drive" || info.Artist != "Radar Band" || info.Album != "Tapes" {
		t.Errorf("text frames = %+v", info)
	}
	if info.Genre != "Electronic" {
		t.Errorf("Genre = %q, want Electronic", info.Genre)
	}
	if info.Year != "2024" {
		t.Errorf("Year = %q, want 2024", info.Year)
	}
	if info.Comment != "recorded live" {
		t.Errorf("Comment = %q, want %q", info.Comment, "recorded live")
	}
	if info.Cover.ContentType != "image/jpeg" || !bytes.Equal(info.Cover.Data, []byte{1, 2, 3}) {
		t.Errorf("Cover = %q %v, want front cover", info.Cover.ContentType, info.Cover.Data)
	}
}

func TestProbe_FirstPictureWithoutFrontCover(t *testing.T) {
	data := taggedMP3(t, func(tag *id3v2.Tag) {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/png",
			PictureType: id3v2.PTOther,
			Description: "only",
			Picture:     []byte{7},
		})
	})

	info, err := Probe(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(info.Cover.Data, []byte{7}) {
		t.Errorf("Cover.Data = %v, want [7]", info.Cover.Data)
	}
}

func TestProbe_NoTag(t *testing.T) {
	info, err := Probe(append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 64)...))
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if !info.IsZero() {
		t.Errorf("Info = %+v, want zero", info)
	}
}

func TestCleanGenre(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rock", "Rock"},
		{"(17)Rock", "Rock"},
		{"(17)", ""},
		{"(17)(52) Electronic ", "Electronic"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CleanGenre(tt.in); got != tt.want {
				t.Errorf("CleanGenre(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
