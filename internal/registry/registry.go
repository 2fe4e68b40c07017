package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/radar-music/radar/internal/http"
)

// DefaultURL is the contract gateway.
const DefaultURL = "https://gateway.warp.cc"

// DefaultDelay is the minimum spacing between registrations.
const DefaultDelay = time.Second

// Registration is the gateway's answer to a register call.
type Registration struct {
	ContractTxID string `json:"contractTxId"`
}

// Client registers content ids with the contract gateway.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a Client. A non-positive delay disables pacing.
func NewClient(client *http.Client, baseURL string, delay time.Duration) *Client {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Client{
		http:    client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

type registerRequest struct {
	ID         string `json:"id"`
	BundlrNode string `json:"bundlrNode"`
}

// Register registers contentID, uploaded through the bundling node
// node, as an asset. It blocks until the limiter admits the call.
func (c *Client) Register(ctx context.Context, contentID, node string) (*Registration, error) {
	if contentID == "" {
		return nil, errors.New("register: empty content id")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("register %s: %w", contentID, err)
	}

	var reg Registration
	err := c.http.PostJSON(ctx, c.baseURL+"/gateway/contracts/register", registerRequest{
		ID:         contentID,
		BundlrNode: node,
	}, &reg)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", contentID, err)
	}
	return &reg, nil
}
