package backend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/radar-music/radar/internal/http"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/wallet"
)

// DefaultChunkSize is the chunk size used when none is configured.
const DefaultChunkSize int64 = 25_000_000

// DefaultToken is the payment token used on bundling nodes.
const DefaultToken = "arweave"

// RetryPolicy controls how often a failed chunk is resent.
//
// The wait before retry n (zero-based) is Cooldown * Exponent^n.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts per chunk. Values
	// below 1 mean a single attempt.
	MaxAttempts int
	Cooldown    time.Duration
	Exponent    float64
}

// ChunkedOptions configures a Chunked backend.
type ChunkedOptions struct {
	NodeURL   string
	Token     string
	ChunkSize int64
	Retry     RetryPolicy
}

// Chunked uploads signed items to a bundling node in chunks.
//
// The protocol is:
//
//	GET  {node}/chunks/{token}/-1/-1            -> {id, min, max}
//	POST {node}/chunks/{token}/{id}/{offset}    one per chunk
//	POST {node}/chunks/{token}/{id}/-1          -> {id}
type Chunked struct {
	client *http.Client
	wallet wallet.Wallet
	opts   ChunkedOptions
}

// NewChunked creates a Chunked backend.
func NewChunked(client *http.Client, w wallet.Wallet, opts ChunkedOptions) *Chunked {
	if opts.Token == "" {
		opts.Token = DefaultToken
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Chunked{client: client, wallet: w, opts: opts}
}

type chunkSession struct {
	ID  string `json:"id"`
	Min int64  `json:"min"`
	Max int64  `json:"max"`
}

type finishResponse struct {
	ID string `json:"id"`
}

var chunkHeader = http.Header{
	"Content-Type":       "application/octet-stream",
	"x-chunking-version": "2",
}

// Upload signs and uploads data.
func (c *Chunked) Upload(ctx context.Context, data []byte, tags []model.Tag, onProgress ProgressFunc) (string, error) {
	raw, err := c.wallet.SignDataItem(ctx, data, tags)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	base := fmt.Sprintf("%s/chunks/%s", c.opts.NodeURL, c.opts.Token)

	var session chunkSession
	if err := c.client.GetJSON(ctx, base+"/-1/-1", chunkHeader, &session); err != nil {
		return "", fmt.Errorf("start chunked upload: %w", err)
	}
	if session.ID == "" {
		return "", errors.New("start chunked upload: node returned no upload id")
	}

	chunkSize := clampChunkSize(c.opts.ChunkSize, session.Min, session.Max)
	total := int64(len(raw))
	wireChunks := TotalChunks(total, chunkSize)

	// Percent follows the payload, not the signed item: the item header
	// can add a trailing wire chunk, which reports nothing new.
	payloadChunks := TotalChunks(int64(len(data)), chunkSize)
	reported := -1.0

	for i := 0; i < wireChunks; i++ {
		offset := int64(i) * chunkSize
		end := min(offset+chunkSize, total)

		url := fmt.Sprintf("%s/%s/%d", base, session.ID, offset)
		if err := c.sendChunk(ctx, url, raw[offset:end]); err != nil {
			return "", &ChunkError{Index: i, Offset: offset, Err: err}
		}

		percent := ChunkPercent(i, payloadChunks)
		if percent <= reported {
			continue
		}
		reported = percent
		report(onProgress, Progress{
			ChunkIndex: i,
			Uploaded:   end,
			Total:      total,
			Percent:    percent,
		})
	}

	finishURL := fmt.Sprintf("%s/%s/-1", base, session.ID)
	body, err := c.client.PostBytes(ctx, finishURL, nil, chunkHeader)
	if err != nil {
		return "", fmt.Errorf("finish chunked upload: %w", err)
	}
	var done finishResponse
	if err := decodeJSON(finishURL, body, &done); err != nil {
		return "", fmt.Errorf("finish chunked upload: %w", err)
	}
	if done.ID == "" {
		return "", errors.New("finish chunked upload: node returned no content id")
	}

	return done.ID, nil
}

func (c *Chunked) sendChunk(ctx context.Context, url string, chunk []byte) error {
	attempts := max(c.opts.Retry.MaxAttempts, 1)

	var err error
	for try := 0; try < attempts; try++ {
		if _, err = c.client.PostBytes(ctx, url, chunk, chunkHeader); err == nil {
			return nil
		}
		if !retryable(err) || try == attempts-1 {
			break
		}
		if werr := c.waitForRetry(ctx, try); werr != nil {
			return werr
		}
	}
	return err
}

func (c *Chunked) waitForRetry(ctx context.Context, try int) error {
	exp := c.opts.Retry.Exponent
	if exp <= 0 {
		exp = 1
	}
	cooldown := time.Duration(float64(c.opts.Retry.Cooldown) * math.Pow(exp, float64(try)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(cooldown):
		return nil
	}
}

// retryable reports whether a chunk failure may succeed when resent:
// transport errors and 5xx responses.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := http.StatusCode(err)
	return code == 0 || code >= 500
}

// TotalChunks returns the number of chunks a payload of total bytes is
// split into. A payload of at most one chunk size, including an empty
// one, is a single chunk.
func TotalChunks(total, chunkSize int64) int {
	if total <= chunkSize {
		return 1
	}
	return int((total + chunkSize - 1) / chunkSize)
}

// ChunkPercent returns the progress after chunk index of count has been
// sent, capped at 100.
func ChunkPercent(index, count int) float64 {
	return math.Min(100, float64(index+1)/float64(count)*100)
}

func clampChunkSize(size, lo, hi int64) int64 {
	if lo > 0 && size < lo {
		size = lo
	}
	if hi > 0 && size > hi {
		size = hi
	}
	return size
}
