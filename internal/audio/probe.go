package audio

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/radar-music/radar/internal/model"
)

// Info holds the ID3 fields radar can use to fill in missing track metadata.
type Info struct {
	Title   string
	Artist  string
	Album   string
	Genre   string
	Year    string
	Comment string

	// Cover is the embedded front cover, or the first attached picture when
	// no picture is marked as front cover. Zero when the file has none.
	Cover model.Asset
}

// IsZero reports whether no usable field was found.
func (i Info) IsZero() bool {
	return i.Title == "" && i.Artist == "" && i.Album == "" && i.Genre == "" &&
		i.Year == "" && i.Comment == "" && i.Cover.IsZero()
}

// Probe reads the ID3v2 tag at the start of an MP3 file.
//
// Files without a tag yield a zero Info and no error. The audio payload is
// never modified.
//
// Example:
//
//	info, err := audio.Probe(track.Audio.Data)
//	if err != nil {
//	    return err
//	}
//	if track.Metadata.Title == "" {
//	    track.Metadata.Title = info.Title
//	}
func Probe(data []byte) (Info, error) {
	tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err != nil {
		return Info{}, fmt.Errorf("parse id3 tag: %w", err)
	}

	info := Info{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
		Genre:  CleanGenre(tag.Genre()),
		Year:   strings.TrimSpace(tag.Year()),
	}

	for _, f := range tag.GetFrames(tag.CommonID("Comments")) {
		if c, ok := f.(id3v2.CommentFrame); ok && strings.TrimSpace(c.Text) != "" {
			info.Comment = strings.TrimSpace(c.Text)
			break
		}
	}

	info.Cover = cover(tag)
	return info, nil
}

func cover(tag *id3v2.Tag) model.Asset {
	var first *id3v2.PictureFrame
	for _, f := range tag.GetFrames(tag.CommonID("Attached picture")) {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if pic.PictureType == id3v2.PTFrontCover {
			return pictureAsset(pic)
		}
		if first == nil {
			first = &pic
		}
	}
	if first == nil {
		return model.Asset{}
	}
	return pictureAsset(*first)
}

func pictureAsset(pic id3v2.PictureFrame) model.Asset {
	return model.Asset{Data: pic.Picture, ContentType: pic.MimeType, Name: pic.Description}
}

var genreRef = regexp.MustCompile(`^\(\d+\)`)

// CleanGenre strips ID3v1 numeric genre references such as "(17)" and
// surrounding whitespace. "(17)Rock" becomes "Rock"; a bare "(17)" becomes "".
func CleanGenre(genre string) string {
	genre = strings.TrimSpace(genre)
	for genreRef.MatchString(genre) {
		genre = strings.TrimSpace(genreRef.ReplaceAllString(genre, ""))
	}
	return genre
}
