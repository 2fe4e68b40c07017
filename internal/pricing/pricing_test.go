package pricing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/http"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/wallet"
)

type stubWallet struct{}

func (stubWallet) ActiveAddress(context.Context) (string, error) { return "addr", nil }
func (stubWallet) PublicKey(context.Context) (string, error)     { return "pubkey", nil }
func (stubWallet) Permissions(context.Context) ([]wallet.Permission, error) {
	return wallet.AllPermissions, nil
}
func (stubWallet) SignDataItem(context.Context, []byte, []model.Tag) ([]byte, error) {
	return nil, nil
}
// Signature only signs unsalted, as the payment service expects for
// nonces.
func (stubWallet) Signature(_ context.Context, msg []byte, opts wallet.SignatureOptions) ([]byte, error) {
	if opts.SaltLength != wallet.SaltLengthNone {
		return nil, fmt.Errorf("salt length %d, want none", opts.SaltLength)
	}
	return append([]byte("sig:"), msg...), nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /v1/balance", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nonce := r.Header.Get("x-nonce")
		sig, err := base64.StdEncoding.DecodeString(r.Header.Get("x-signature"))
		if err != nil || string(sig) != "sig:"+nonce || nonce == "" {
			nethttp.Error(w, "bad signature", nethttp.StatusUnauthorized)
			return
		}
		if r.Header.Get("x-public-key") != "pubkey" {
			nethttp.Error(w, "bad key", nethttp.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"winc":"2500000000000"}`)
	})
	mux.HandleFunc("GET /v1/price/bytes/{n}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.PathValue("n") != "1048576" {
			t.Errorf("price bytes = %s", r.PathValue("n"))
		}
		fmt.Fprint(w, `{"winc":"123456789"}`)
	})
	mux.HandleFunc("GET /v1/currencies", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprint(w, `{"supportedCurrencies":["usd","eur","gbp"]}`)
	})
	mux.HandleFunc("GET /v1/top-up/checkout-session/{addr}/{cur}/{amount}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprintf(w, `{"paymentSession":{"url":"https://pay.example/%s/%s/%s"}}`,
			r.PathValue("addr"), r.PathValue("cur"), r.PathValue("amount"))
	})
	mux.HandleFunc("GET /account/balance/arweave", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Query().Get("address") != "addr" {
			t.Errorf("address = %q", r.URL.Query().Get("address"))
		}
		fmt.Fprint(w, `{"balance":"1000000000000"}`)
	})
	mux.HandleFunc("GET /price/arweave/{n}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprint(w, "500000000")
	})
	mux.HandleFunc("GET /wallet/{addr}/balance", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprint(w, "42000000000000")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	srv := newServer(t)
	return NewClient(http.NewClient(), stubWallet{}, Config{
		PaymentURL: srv.URL,
		NodeURL:    srv.URL,
		GatewayURL: srv.URL + "/",
	})
}

func TestAmount_Format(t *testing.T) {
	tests := []struct {
		atomic   string
		decimals int
		want     string
	}{
		{"0", 4, "0.0000"},
		{"1000000000000", 4, "1.0000"},
		{"2500000000000", 2, "2.50"},
		{"123456789", 4, "0.0001"},
		{"123456789", 12, "0.000123456789"},
		{"98765432109876543210", 4, "98765432.1099"},
	}

	for _, tt := range tests {
		t.Run(tt.atomic, func(t *testing.T) {
			got, err := FormatCredits(tt.atomic, tt.decimals)
			if err != nil {
				t.Fatalf("FormatCredits() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FormatCredits(%s, %d) = %s, want %s", tt.atomic, tt.decimals, got, tt.want)
			}
		})
	}

	if _, err := FormatCredits("12.5", 4); err == nil {
		t.Error("expected error for non-integer atomic amount")
	}
}

func TestAmount_String(t *testing.T) {
	a, _ := ParseAmount("1500000000000", UnitAR)
	if got := a.String(); got != "1.5000 AR" {
		t.Errorf("String() = %q", got)
	}
}

func TestClient_CreditQueries(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	balance, err := c.CreditBalance(ctx)
	if err != nil {
		t.Fatalf("CreditBalance() error = %v", err)
	}
	if balance.Format(1) != "2.5" || balance.Unit != UnitCredits {
		t.Errorf("balance = %s", balance)
	}

	price, err := c.EstimateUploadCost(ctx, 1048576, backend.ProviderTurbo)
	if err != nil {
		t.Fatalf("EstimateUploadCost() error = %v", err)
	}
	if price.Atomic.String() != "123456789" {
		t.Errorf("price = %s", price.Atomic)
	}

	currencies, err := c.Currencies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(currencies, []string{"usd", "eur", "gbp"}) {
		t.Errorf("Currencies() = %v", currencies)
	}
}

func TestClient_CheckoutSession(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	url, err := c.CheckoutSession(ctx, "addr", "USD", 12.5)
	if err != nil {
		t.Fatalf("CheckoutSession() error = %v", err)
	}
	if url != "https://pay.example/addr/usd/1250" {
		t.Errorf("url = %q", url)
	}

	if _, err := c.CheckoutSession(ctx, "", "usd", 10); !errors.Is(err, ErrNoAddress) {
		t.Errorf("missing address error = %v", err)
	}
	if _, err := c.CheckoutSession(ctx, "addr", "usd", 0); !errors.Is(err, ErrNoAmount) {
		t.Errorf("missing amount error = %v", err)
	}
}

func TestClient_NodeQueries(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	balance, err := c.Balance(ctx, backend.ProviderIrys, "addr")
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if balance.String() != "1.0000 AR" {
		t.Errorf("node balance = %s", balance)
	}

	price, err := c.EstimateUploadCost(ctx, 10, backend.ProviderIrys)
	if err != nil {
		t.Fatalf("EstimateUploadCost() error = %v", err)
	}
	if price.Atomic.Int64() != 500000000 {
		t.Errorf("node price = %s", price.Atomic)
	}

	onchain, err := c.WalletBalance(ctx, "addr")
	if err != nil {
		t.Fatal(err)
	}
	if onchain.Format(0) != "42" {
		t.Errorf("wallet balance = %s", onchain)
	}
}

func TestClient_Summarize(t *testing.T) {
	c := newTestClient(t)

	s, err := c.Summarize(context.Background(), backend.ProviderTurbo, "addr", 1048576, nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Cost == nil || s.Balance == nil || s.WalletBalance == nil {
		t.Fatalf("summary has unknown fields: %+v", s)
	}
	if enough, ok := s.Sufficient(); !ok || !enough {
		t.Errorf("Sufficient() = %v, %v, want true, true", enough, ok)
	}
}

func TestClient_SummarizePartialFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/v1/price/bytes/10" {
			fmt.Fprint(w, `{"winc":"10"}`)
			return
		}
		nethttp.Error(w, "down", nethttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(http.NewClient(), stubWallet{}, Config{PaymentURL: srv.URL, NodeURL: srv.URL, GatewayURL: srv.URL})
	s, err := c.Summarize(context.Background(), backend.ProviderTurbo, "addr", 10, nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.Cost == nil {
		t.Error("cost should be known")
	}
	if s.Balance != nil || s.WalletBalance != nil {
		t.Errorf("failed queries should stay unknown: %+v", s)
	}
	if _, ok := s.Sufficient(); ok {
		t.Error("Sufficient() should be unknown without a balance")
	}
}
