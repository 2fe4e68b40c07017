// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Reading release assets with content sniffing
//   - Resolving manifest-relative paths
//   - Writing files and creating directories
//   - Artwork resizing and format conversion
//
// # Assets
//
//	audio, err := ioutils.ReadAsset(ctx, "tracks/01-intro.mp3")
//	fmt.Println(audio.ContentType) // "audio/mpeg"
//
//	path := ioutils.ResolvePath(manifestDir, "artwork/cover.png")
//
// # Image Processing
//
// The ImageService normalizes cover art before upload:
//
//	svc := ioutils.NewImageService()
//
//	// Fit within 1400x1400 and re-encode as JPEG
//	art, _ := svc.Normalize(ctx, release.Artwork, 1400)
package ioutils
