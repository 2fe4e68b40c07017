package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/radar-music/radar/internal/http"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/wallet"
)

// SubmitPercent is reported once the signed item has been built and is
// being posted.
const SubmitPercent = 50

// Signed posts a fully signed item to the upload service in one request.
type Signed struct {
	client    *http.Client
	wallet    wallet.Wallet
	uploadURL string
}

// NewSigned creates a Signed backend posting to {uploadURL}/v1/tx.
func NewSigned(client *http.Client, w wallet.Wallet, uploadURL string) *Signed {
	return &Signed{client: client, wallet: w, uploadURL: strings.TrimSuffix(uploadURL, "/")}
}

// Receipt is the upload service response.
type Receipt struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Timestamp int64  `json:"timestamp"`
}

// Upload signs and posts data.
func (s *Signed) Upload(ctx context.Context, data []byte, tags []model.Tag, onProgress ProgressFunc) (string, error) {
	raw, err := s.wallet.SignDataItem(ctx, data, tags)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	total := int64(len(raw))

	report(onProgress, Progress{Total: total, Percent: SubmitPercent})

	url := s.uploadURL + "/v1/tx"
	body, err := s.client.PostBytes(ctx, url, raw, http.Header{
		"Content-Type": "application/octet-stream",
		"Accept":       "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("post data item: %w", err)
	}

	var receipt Receipt
	if err := decodeJSON(url, body, &receipt); err != nil {
		return "", fmt.Errorf("post data item: %w", err)
	}
	if receipt.ID == "" {
		return "", errors.New("post data item: service returned no content id")
	}

	report(onProgress, Progress{Uploaded: total, Total: total, Percent: 100})
	return receipt.ID, nil
}

// decodeJSON decodes a response body into v. Failures are returned as
// *http.DecodeError, the same as the client's JSON helpers.
func decodeJSON(url string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &http.DecodeError{URL: url, Err: err}
	}
	return nil
}
