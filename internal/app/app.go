// Package app wires radar's components together from Settings.
//
// Both the CLI and the TUI build their collaborators through an App so a
// release uploads the same way from either front-end.
//
//	a := app.New(settings, logger)
//	defer a.Close()
//
//	release, err := a.Loader().Load(ctx, "release.yaml")
//	assembler, opts, err := a.NewAssembler(ctx, onProgress)
//	outcome, err := assembler.Upload(ctx, release, opts)
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/config"
	"github.com/radar-music/radar/internal/http"
	ioutils "github.com/radar-music/radar/internal/io"
	"github.com/radar-music/radar/internal/journal"
	"github.com/radar-music/radar/internal/manifest"
	"github.com/radar-music/radar/internal/pricing"
	"github.com/radar-music/radar/internal/registry"
	"github.com/radar-music/radar/internal/tags"
	"github.com/radar-music/radar/internal/upload"
	"github.com/radar-music/radar/internal/wallet"
)

// UserAgent is sent with every request.
const UserAgent = "radar/" + tags.AppVersion

// App holds the shared collaborators. Wallet and journal are opened on
// first use.
type App struct {
	Settings *config.Settings
	Logger   *slog.Logger
	Client   *http.Client

	mu      sync.Mutex
	wallet  *wallet.KeyFile
	journal *journal.Journal
}

// New creates an App.
func New(settings *config.Settings, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Settings: settings,
		Logger:   logger,
		Client:   http.NewClient(http.WithTimeout(settings.Timeout()), http.WithUserAgent(UserAgent)),
	}
}

// Wallet loads the key file named by the settings.
func (a *App) Wallet() (*wallet.KeyFile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.wallet != nil {
		return a.wallet, nil
	}
	path := ioutils.ResolvePath("", a.Settings.WalletPath)
	w, err := wallet.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet %s: %w", path, err)
	}
	a.wallet = w
	return w, nil
}

// Journal opens the upload journal named by the settings.
func (a *App) Journal() (*journal.Journal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.journal != nil {
		return a.journal, nil
	}
	path := ioutils.ResolvePath("", a.Settings.JournalPath)
	if err := ioutils.EnsureParentDir(path); err != nil {
		return nil, err
	}
	j, err := journal.Open(journal.Config{Path: path, Logger: a.Logger})
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

// Close releases the journal, if it was opened.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.journal == nil {
		return nil
	}
	err := a.journal.Close()
	a.journal = nil
	return err
}

// Provider returns the configured upload provider.
func (a *App) Provider() (backend.Provider, error) {
	return backend.ParseProvider(a.Settings.Provider)
}

// Loader returns a manifest loader configured from the settings.
func (a *App) Loader() *manifest.Loader {
	opts := a.Settings.ToLoaderOptions()
	opts.Logger = a.Logger
	if a.Settings.ArtworkResize {
		opts.Images = ioutils.NewImageService()
	}
	return manifest.NewLoader(opts)
}

// Registrar returns the registry client, or nil when registration is
// disabled.
func (a *App) Registrar() *registry.Client {
	if !a.Settings.Register {
		return nil
	}
	return registry.NewClient(a.Client, a.Settings.RegistryURL, a.Settings.RegistryDelay())
}

// Pricing returns a pricing client. The wallet is attached when it can
// be loaded so credit balances can be signed for.
func (a *App) Pricing() *pricing.Client {
	var w wallet.Wallet
	if kf, err := a.Wallet(); err == nil {
		w = kf
	} else {
		a.Logger.Debug("pricing without wallet", "error", err)
	}
	return pricing.NewClient(a.Client, w, a.Settings.ToPricingConfig())
}

// NewAssembler builds an Assembler and the matching upload options. A
// journal that cannot be opened is logged and skipped.
func (a *App) NewAssembler(ctx context.Context, onProgress func(upload.ProgressEvent)) (*upload.Assembler, upload.Options, error) {
	w, err := a.Wallet()
	if err != nil {
		return nil, upload.Options{}, fmt.Errorf("%w: %w", upload.ErrNoWallet, err)
	}
	if err := wallet.Require(ctx, w, wallet.PermissionAccessAddress, wallet.PermissionSignTransaction); err != nil {
		return nil, upload.Options{}, err
	}
	address, err := w.ActiveAddress(ctx)
	if err != nil {
		return nil, upload.Options{}, err
	}

	b, err := backend.New(a.Client, w, a.Settings.ToBackendOptions())
	if err != nil {
		return nil, upload.Options{}, err
	}

	cfg := upload.Config{
		Backend:    b,
		Logger:     a.Logger,
		OnProgress: onProgress,
	}
	// Assign only non-nil values so the interfaces stay nil when unset.
	if r := a.Registrar(); r != nil {
		cfg.Registrar = r
	}
	if j, err := a.Journal(); err != nil {
		a.Logger.Warn("upload journal unavailable", "error", err)
	} else {
		cfg.Journal = j
	}

	provider, _ := a.Provider()
	opts := upload.Options{Address: address, Provider: provider, Node: a.Settings.Node}
	return upload.NewAssembler(cfg), opts, nil
}
