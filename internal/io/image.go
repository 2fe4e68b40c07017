package ioutils

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration

	"github.com/radar-music/radar/internal/model"
)

// JPEGQuality is the encoder quality used for normalized artwork.
const JPEGQuality = 90

// ErrEmptyImage is returned when an image operation receives no data.
var ErrEmptyImage = errors.New("empty image data")

// ImageService prepares cover art before it is uploaded.
//
// Artwork is decoded (JPEG, PNG or WebP), scaled down to fit a bounding box
// and re-encoded as JPEG so every release ships a predictable thumbnail.
//
// Example usage:
//
//	svc := NewImageService()
//	art, err := svc.Normalize(ctx, release.Artwork, 1400)
//	if err != nil {
//	    return err
//	}
//	release.Artwork = art
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Normalize fits the asset into a maxSide x maxSide square and re-encodes it
// as JPEG. A non-positive maxSide only converts the format. The asset name is
// preserved.
func (s *ImageService) Normalize(ctx context.Context, asset model.Asset, maxSide int) (model.Asset, error) {
	var (
		data []byte
		err  error
	)
	if maxSide > 0 {
		data, err = s.ResizeImage(ctx, asset.Data, maxSide, maxSide)
	} else {
		data, err = s.ConvertToJPEG(ctx, asset.Data)
	}
	if err != nil {
		return model.Asset{}, err
	}

	return model.Asset{Data: data, ContentType: "image/jpeg", Name: asset.Name}, nil
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and images that already fit keep their
// size. The result is always JPEG-encoded. Scaling uses Catmull-Rom.
//
// Example:
//
//	// A 1500x1000 image becomes 1000x666
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, err := decode(ctx, data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

// ConvertToJPEG re-encodes an image as JPEG without changing its dimensions.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	img, err := decode(ctx, data)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

// fit returns the largest dimensions within maxW x maxH that keep the
// aspect ratio of w x h. Dimensions already inside the box are unchanged.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	ratio := float64(w) / float64(h)
	if float64(maxW)/float64(maxH) > ratio {
		// Height is the limiting factor
		return max(1, int(float64(maxH)*ratio)), maxH
	}
	return maxW, max(1, int(float64(maxW)/ratio))
}

func decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
