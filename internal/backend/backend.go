package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/radar-music/radar/internal/http"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/wallet"
)

// Provider selects an upload service.
type Provider string

const (
	// ProviderIrys uploads through a chunked bundling node and is paid
	// in the network's native token.
	ProviderIrys Provider = "irys"

	// ProviderTurbo uploads signed items in one request and is paid
	// with pre-purchased credits.
	ProviderTurbo Provider = "turbo"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderIrys, ProviderTurbo:
		return p, nil
	}
	return "", fmt.Errorf("unknown provider %q (want %q or %q)", s, ProviderIrys, ProviderTurbo)
}

// Progress is a single upload progress update.
type Progress struct {
	// ChunkIndex is the zero-based index of the chunk just sent. Signed
	// uploads report 0.
	ChunkIndex int

	// Uploaded is the cumulative number of bytes sent.
	Uploaded int64

	// Total is the size of the signed item in bytes.
	Total int64

	// Percent is the upload percentage, 0 to 100.
	Percent float64
}

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(Progress)

// Backend uploads a payload with its tags and returns the content id.
type Backend interface {
	Upload(ctx context.Context, data []byte, tags []model.Tag, onProgress ProgressFunc) (string, error)
}

// Options configures New.
type Options struct {
	Provider Provider

	// NodeURL is the bundling node base URL for ProviderIrys.
	NodeURL string

	// Token is the payment token name on the bundling node.
	Token string

	// ChunkSize is the chunk size for ProviderIrys.
	ChunkSize int64

	// ChunkRetry controls chunk retries for ProviderIrys.
	ChunkRetry RetryPolicy

	// UploadURL is the upload service base URL for ProviderTurbo.
	UploadURL string
}

// New returns the backend for opts.Provider.
func New(client *http.Client, w wallet.Wallet, opts Options) (Backend, error) {
	switch opts.Provider {
	case ProviderIrys:
		return NewChunked(client, w, ChunkedOptions{
			NodeURL:   opts.NodeURL,
			Token:     opts.Token,
			ChunkSize: opts.ChunkSize,
			Retry:     opts.ChunkRetry,
		}), nil
	case ProviderTurbo:
		return NewSigned(client, w, opts.UploadURL), nil
	}
	return nil, fmt.Errorf("unknown provider %q", opts.Provider)
}

// NodeURL expands a node URL template such as "https://{node}.irys.xyz".
func NodeURL(template, node string) string {
	return strings.ReplaceAll(template, "{node}", node)
}

func report(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
