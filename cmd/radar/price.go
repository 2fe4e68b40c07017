package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

func runPrice(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("price", &g)
	bytes := fs.String("bytes", "", "Byte count to price, e.g. 25000000 or 25MB")
	fs.Usage = func() {
		fmt.Println("Usage: radar price [options] [manifest.yaml]")
		fmt.Println()
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	var n int64
	switch {
	case *bytes != "":
		v, err := humanize.ParseBytes(*bytes)
		if err != nil {
			return fmt.Errorf("invalid --bytes: %w", err)
		}
		n = int64(v)
	case fs.NArg() == 1:
		release, err := a.Loader().Load(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		n = release.TotalSize()
	default:
		fs.Usage()
		return errors.New("a manifest or --bytes is required")
	}

	provider, err := a.Provider()
	if err != nil {
		return err
	}
	cost, err := a.Pricing().EstimateUploadCost(ctx, n, provider)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s bytes) via %s: %s\n", humanize.Bytes(uint64(n)), strconv.FormatInt(n, 10), provider, cost)
	return nil
}

func runBalance(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("balance", &g)
	address := fs.String("address", "", "Address to query (defaults to the wallet address)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	addr := *address
	if addr == "" {
		w, err := a.Wallet()
		if err != nil {
			return err
		}
		addr = w.Address()
	}
	provider, err := a.Provider()
	if err != nil {
		return err
	}

	client := a.Pricing()
	balance, err := client.Balance(ctx, provider, addr)
	if err != nil {
		return err
	}
	fmt.Printf("Address: %s\n", addr)
	fmt.Printf("%s balance: %s\n", provider, balance)

	if wallet, err := client.WalletBalance(ctx, addr); err != nil {
		a.Logger.Warn("wallet balance unavailable", "error", err)
	} else {
		fmt.Printf("Wallet balance: %s\n", wallet)
	}
	return nil
}

func runCurrencies(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("currencies", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	currencies, err := a.Pricing().Currencies(ctx)
	if err != nil {
		return err
	}
	for _, c := range currencies {
		fmt.Println(c)
	}
	return nil
}

func runTopUp(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("topup", &g)
	currency := fs.String("currency", "usd", "Payment currency")
	amount := fs.Float64("amount", 0, "Amount to pay in the payment currency")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	w, err := a.Wallet()
	if err != nil {
		return err
	}
	url, err := a.Pricing().CheckoutSession(ctx, w.Address(), *currency, *amount)
	if err != nil {
		return err
	}

	fmt.Println("Open this page to complete the payment:")
	fmt.Println(url)
	return nil
}
