package pricing

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/radar-music/radar/internal/backend"
)

// Summary gathers the cost of an upload and the balances that can pay
// for it. Nil fields are unknown.
type Summary struct {
	Bytes    int64
	Provider backend.Provider

	Cost    *Amount
	Balance *Amount

	// WalletBalance is the on-chain balance of the address.
	WalletBalance *Amount
}

// Sufficient reports whether the known balance covers the known cost.
// It returns ok=false when either figure is unknown.
func (s *Summary) Sufficient() (enough, ok bool) {
	if s.Cost == nil || s.Balance == nil {
		return false, false
	}
	return s.Balance.Cmp(*s.Cost) >= 0, true
}

// Summarize queries cost and balances concurrently. Individual query
// failures are logged and leave the matching field nil; Summarize
// itself only fails when ctx is done.
func (c *Client) Summarize(ctx context.Context, provider backend.Provider, address string, n int64, logger *slog.Logger) (*Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Summary{Bytes: n, Provider: provider}

	g, gctx := errgroup.WithContext(ctx)
	query := func(name string, dst **Amount, fn func(context.Context) (Amount, error)) {
		g.Go(func() error {
			a, err := fn(gctx)
			if err != nil {
				logger.Warn("pricing query failed", "query", name, "error", err)
				return nil
			}
			*dst = &a
			return nil
		})
	}

	query("cost", &s.Cost, func(ctx context.Context) (Amount, error) {
		return c.EstimateUploadCost(ctx, n, provider)
	})
	if address != "" {
		query("balance", &s.Balance, func(ctx context.Context) (Amount, error) {
			return c.Balance(ctx, provider, address)
		})
		query("wallet", &s.WalletBalance, func(ctx context.Context) (Amount, error) {
			return c.WalletBalance(ctx, address)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
