package pricing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/http"
	"github.com/radar-music/radar/internal/wallet"
)

// Default service URLs.
const (
	DefaultPaymentURL = "https://payment.ardrive.io"
	DefaultGatewayURL = "https://arweave.net"
)

var (
	// ErrNoAddress is returned when a query needs a wallet address.
	ErrNoAddress = errors.New("no address connected")

	// ErrNoAmount is returned when a top-up amount is missing.
	ErrNoAmount = errors.New("no amount provided")
)

// Config holds the service endpoints.
type Config struct {
	PaymentURL string
	NodeURL    string
	GatewayURL string

	// Token is the payment token name on the bundling node.
	Token string
}

// Client queries prices and balances.
type Client struct {
	http   *http.Client
	wallet wallet.Wallet
	cfg    Config
}

// NewClient creates a Client. w is only needed for the authenticated
// credit balance and may be nil otherwise.
func NewClient(client *http.Client, w wallet.Wallet, cfg Config) *Client {
	if cfg.PaymentURL == "" {
		cfg.PaymentURL = DefaultPaymentURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if cfg.Token == "" {
		cfg.Token = backend.DefaultToken
	}
	cfg.PaymentURL = strings.TrimSuffix(cfg.PaymentURL, "/")
	cfg.NodeURL = strings.TrimSuffix(cfg.NodeURL, "/")
	cfg.GatewayURL = strings.TrimSuffix(cfg.GatewayURL, "/")
	return &Client{http: client, wallet: w, cfg: cfg}
}

type wincResponse struct {
	Winc string `json:"winc"`
}

// CreditBalance returns the credit balance of the wallet. The request
// is authenticated with a signature over a random nonce.
func (c *Client) CreditBalance(ctx context.Context) (Amount, error) {
	if c.wallet == nil {
		return Amount{}, ErrNoAddress
	}

	publicKey, err := c.wallet.PublicKey(ctx)
	if err != nil {
		return Amount{}, fmt.Errorf("credit balance: %w", err)
	}
	nonce := uuid.NewString()
	signature, err := c.wallet.Signature(ctx, []byte(nonce), wallet.SignatureOptions{SaltLength: wallet.SaltLengthNone})
	if err != nil {
		return Amount{}, fmt.Errorf("credit balance: sign nonce: %w", err)
	}

	var out wincResponse
	err = c.http.GetJSON(ctx, c.cfg.PaymentURL+"/v1/balance", http.Header{
		"x-signature":  encodeSignature(signature),
		"x-nonce":      nonce,
		"x-public-key": publicKey,
	}, &out)
	if err != nil {
		return Amount{}, fmt.Errorf("credit balance: %w", err)
	}
	return ParseAmount(out.Winc, UnitCredits)
}

// CreditPrice returns the credit cost of uploading n bytes.
func (c *Client) CreditPrice(ctx context.Context, n int64) (Amount, error) {
	var out wincResponse
	if err := c.http.GetJSON(ctx, fmt.Sprintf("%s/v1/price/bytes/%d", c.cfg.PaymentURL, n), nil, &out); err != nil {
		return Amount{}, fmt.Errorf("credit price: %w", err)
	}
	return ParseAmount(out.Winc, UnitCredits)
}

type currenciesResponse struct {
	SupportedCurrencies []string `json:"supportedCurrencies"`
}

// Currencies returns the ISO currency codes accepted for top-ups.
func (c *Client) Currencies(ctx context.Context) ([]string, error) {
	var out currenciesResponse
	if err := c.http.GetJSON(ctx, c.cfg.PaymentURL+"/v1/currencies", nil, &out); err != nil {
		return nil, fmt.Errorf("currencies: %w", err)
	}
	return out.SupportedCurrencies, nil
}

type checkoutResponse struct {
	PaymentSession struct {
		URL string `json:"url"`
	} `json:"paymentSession"`
}

// CheckoutSession creates a top-up payment session for amount units of
// currency credited to address and returns the payment page URL.
func (c *Client) CheckoutSession(ctx context.Context, address, currency string, amount float64) (string, error) {
	if address == "" {
		return "", ErrNoAddress
	}
	if amount <= 0 {
		return "", ErrNoAmount
	}

	// The service takes the amount in minor units.
	cents := int64(amount*100 + 0.5)
	endpoint := fmt.Sprintf("%s/v1/top-up/checkout-session/%s/%s/%d",
		c.cfg.PaymentURL, url.PathEscape(address), url.PathEscape(strings.ToLower(currency)), cents)

	var out checkoutResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &out); err != nil {
		return "", fmt.Errorf("checkout session: %w", err)
	}
	if out.PaymentSession.URL == "" {
		return "", errors.New("checkout session: no payment url returned")
	}
	return out.PaymentSession.URL, nil
}

type nodeBalanceResponse struct {
	Balance string `json:"balance"`
}

// NodeBalance returns the balance address has loaded on the bundling
// node.
func (c *Client) NodeBalance(ctx context.Context, address string) (Amount, error) {
	if address == "" {
		return Amount{}, ErrNoAddress
	}
	endpoint := fmt.Sprintf("%s/account/balance/%s?address=%s", c.cfg.NodeURL, c.cfg.Token, url.QueryEscape(address))

	var out nodeBalanceResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &out); err != nil {
		return Amount{}, fmt.Errorf("node balance: %w", err)
	}
	return ParseAmount(out.Balance, UnitAR)
}

// NodePrice returns the bundling node price of uploading n bytes.
func (c *Client) NodePrice(ctx context.Context, n int64) (Amount, error) {
	body, err := c.http.GetString(ctx, fmt.Sprintf("%s/price/%s/%d", c.cfg.NodeURL, c.cfg.Token, n), nil)
	if err != nil {
		return Amount{}, fmt.Errorf("node price: %w", err)
	}
	return ParseAmount(body, UnitAR)
}

// WalletBalance returns the on-chain balance of address.
func (c *Client) WalletBalance(ctx context.Context, address string) (Amount, error) {
	if address == "" {
		return Amount{}, ErrNoAddress
	}
	body, err := c.http.GetString(ctx, fmt.Sprintf("%s/wallet/%s/balance", c.cfg.GatewayURL, url.PathEscape(address)), nil)
	if err != nil {
		return Amount{}, fmt.Errorf("wallet balance: %w", err)
	}
	return ParseAmount(body, UnitAR)
}

// EstimateUploadCost returns the price of uploading n bytes through
// provider.
func (c *Client) EstimateUploadCost(ctx context.Context, n int64, provider backend.Provider) (Amount, error) {
	switch provider {
	case backend.ProviderTurbo:
		return c.CreditPrice(ctx, n)
	case backend.ProviderIrys:
		return c.NodePrice(ctx, n)
	}
	return Amount{}, fmt.Errorf("unknown provider %q", provider)
}

// Balance returns the balance available to provider uploads.
func (c *Client) Balance(ctx context.Context, provider backend.Provider, address string) (Amount, error) {
	switch provider {
	case backend.ProviderTurbo:
		return c.CreditBalance(ctx)
	case backend.ProviderIrys:
		return c.NodeBalance(ctx, address)
	}
	return Amount{}, fmt.Errorf("unknown provider %q", provider)
}

// encodeSignature encodes a nonce signature the way the payment service
// expects it: standard padded base64.
func encodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}
