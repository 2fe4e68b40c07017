package ioutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/radar-music/radar/internal/model"
)

// ReadAsset loads a file into memory and sniffs its content type.
//
// Detection is done on the file content, not its extension, so a cover
// saved as "cover.jpg" that is really a PNG is reported as image/png.
//
// Example:
//
//	art, err := ReadAsset(ctx, "artwork/cover.png")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(art.ContentType) // "image/png"
func ReadAsset(ctx context.Context, path string) (model.Asset, error) {
	if err := ctx.Err(); err != nil {
		return model.Asset{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Asset{}, err
	}
	if len(data) == 0 {
		return model.Asset{}, fmt.Errorf("%s: file is empty", path)
	}

	return model.Asset{
		Data:        data,
		ContentType: DetectContentType(data),
		Name:        filepath.Base(path),
	}, nil
}

// DetectContentType returns the media type of data without parameters,
// e.g. "audio/mpeg" or "image/png".
func DetectContentType(data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mediaType)
}

// ResolvePath resolves p relative to base unless p is already absolute.
// A leading "~/" is expanded to the user's home directory.
func ResolvePath(base, p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(p) || base == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// WriteFile writes data to path, creating parent directories as needed.
//
// Example:
//
//	err := WriteFile(ctx, "~/.radar/wallet.json", keyJSON, 0600)
func WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// The directories are created with mode 0755. If the directory already
// exists, this function returns nil.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return EnsureDir(dir)
}
