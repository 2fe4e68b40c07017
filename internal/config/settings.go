package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/radar-music/radar/internal/backend"
	"github.com/radar-music/radar/internal/logging"
	"github.com/radar-music/radar/internal/manifest"
	"github.com/radar-music/radar/internal/pricing"
	"github.com/radar-music/radar/internal/registry"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RADAR_"

// Settings holds all configuration options.
type Settings struct {
	// Upload settings
	Provider        string `json:"provider"` // irys, turbo
	Node            string `json:"node"`     // node1, node2
	NodeURLTemplate string `json:"node_url_template"`
	Token           string `json:"token"`
	TurboUploadURL  string `json:"turbo_upload_url"`
	ChunkSize       int64  `json:"chunk_size"`

	ChunkMaxRetries    int     `json:"chunk_max_retries"`
	ChunkRetryCooldown float64 `json:"chunk_retry_cooldown"`
	ChunkRetryExponent float64 `json:"chunk_retry_exponent"`
	HTTPTimeout        float64 `json:"http_timeout"`

	// Registration settings
	Register          bool    `json:"register"`
	RegistryURL       string  `json:"registry_url"`
	RegistrationDelay float64 `json:"registration_delay"`

	// Pricing settings
	PaymentURL string `json:"payment_url"`
	GatewayURL string `json:"gateway_url"`

	// Local files
	WalletPath  string `json:"wallet_path"`
	JournalPath string `json:"journal_path"`

	// Release loading
	ArtworkResize       bool `json:"artwork_resize"`
	ArtworkMaxSize      int  `json:"artwork_max_size"`
	ReadID3Tags         bool `json:"read_id3_tags"`
	InheritTrackArtwork bool `json:"inherit_track_artwork"`
	MaxConcurrentReads  int  `json:"max_concurrent_reads"`

	// Logging
	LogLevel      string `json:"log_level"`  // debug, info, warn, error
	LogFormat     string `json:"log_format"` // text, json
	LogFile       string `json:"log_file"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days"`
}

// Dir returns the directory holding radar's settings, wallet and journal.
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".radar")
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "settings.jsonc")
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	dir := Dir()
	return &Settings{
		Provider:        string(backend.ProviderIrys),
		Node:            "node2",
		NodeURLTemplate: "https://{node}.irys.xyz",
		Token:           backend.DefaultToken,
		TurboUploadURL:  "https://upload.ardrive.io",
		ChunkSize:       backend.DefaultChunkSize,

		ChunkMaxRetries:    3,
		ChunkRetryCooldown: 0.5,
		ChunkRetryExponent: 4.0,
		HTTPTimeout:        120,

		Register:          true,
		RegistryURL:       registry.DefaultURL,
		RegistrationDelay: registry.DefaultDelay.Seconds(),

		PaymentURL: pricing.DefaultPaymentURL,
		GatewayURL: pricing.DefaultGatewayURL,

		WalletPath:  filepath.Join(dir, "wallet.json"),
		JournalPath: filepath.Join(dir, "journal.db"),

		ArtworkResize:       true,
		ArtworkMaxSize:      1400,
		ReadID3Tags:         true,
		InheritTrackArtwork: true,
		MaxConcurrentReads:  manifest.DefaultConcurrency,

		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		LogMaxAgeDays: 28,
	}
}

// Load reads settings from a JSON file. Comments and trailing commas are
// allowed. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(jsonc.ToJSON(data), settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays RADAR_* environment variables onto s.
//
//	RADAR_PROVIDER=turbo RADAR_WALLET=~/keys/release.json radar upload
func (s *Settings) ApplyEnv() error {
	strs := map[string]*string{
		"PROVIDER":         &s.Provider,
		"NODE":             &s.Node,
		"NODE_URL":         &s.NodeURLTemplate,
		"TOKEN":            &s.Token,
		"TURBO_UPLOAD_URL": &s.TurboUploadURL,
		"REGISTRY_URL":     &s.RegistryURL,
		"PAYMENT_URL":      &s.PaymentURL,
		"GATEWAY_URL":      &s.GatewayURL,
		"WALLET":           &s.WalletPath,
		"JOURNAL":          &s.JournalPath,
		"LOG_LEVEL":        &s.LogLevel,
		"LOG_FORMAT":       &s.LogFormat,
		"LOG_FILE":         &s.LogFile,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "CHUNK_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sCHUNK_SIZE: %w", EnvPrefix, err)
		}
		s.ChunkSize = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "REGISTER"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREGISTER: %w", EnvPrefix, err)
		}
		s.Register = b
	}

	return nil
}

// Validate checks values that cannot be defaulted.
func (s *Settings) Validate() error {
	provider, err := backend.ParseProvider(s.Provider)
	if err != nil {
		return err
	}
	if provider == backend.ProviderIrys && s.Node == "" {
		return errors.New("node is required for the irys provider")
	}
	if s.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must not be negative, got %d", s.ChunkSize)
	}
	if s.RegistrationDelay < 0 {
		return fmt.Errorf("registration_delay must not be negative, got %v", s.RegistrationDelay)
	}
	return nil
}

// NodeURL returns the bundling node URL for the configured node.
func (s *Settings) NodeURL() string {
	return backend.NodeURL(s.NodeURLTemplate, s.Node)
}

// Timeout returns the HTTP timeout.
func (s *Settings) Timeout() time.Duration {
	return seconds(s.HTTPTimeout)
}

// RegistryDelay returns the minimum spacing between registrations.
func (s *Settings) RegistryDelay() time.Duration {
	return seconds(s.RegistrationDelay)
}

// ToBackendOptions converts settings to backend.Options.
func (s *Settings) ToBackendOptions() backend.Options {
	return backend.Options{
		Provider:  s.provider(),
		NodeURL:   s.NodeURL(),
		Token:     s.Token,
		ChunkSize: s.ChunkSize,
		ChunkRetry: backend.RetryPolicy{
			MaxAttempts: s.ChunkMaxRetries + 1,
			Cooldown:    seconds(s.ChunkRetryCooldown),
			Exponent:    s.ChunkRetryExponent,
		},
		UploadURL: s.TurboUploadURL,
	}
}

// ToPricingConfig converts settings to pricing.Config.
func (s *Settings) ToPricingConfig() pricing.Config {
	return pricing.Config{
		PaymentURL: s.PaymentURL,
		NodeURL:    s.NodeURL(),
		GatewayURL: s.GatewayURL,
		Token:      s.Token,
	}
}

// ToLoaderOptions converts settings to manifest.Options. The image
// service and logger are supplied by the caller.
func (s *Settings) ToLoaderOptions() manifest.Options {
	opts := manifest.Options{
		Concurrency:    s.MaxConcurrentReads,
		ProbeAudio:     s.ReadID3Tags,
		InheritArtwork: s.InheritTrackArtwork,
	}
	if s.ArtworkResize {
		opts.ArtworkMaxSide = s.ArtworkMaxSize
	}
	return opts
}

// ToLogConfig converts settings to logging.Config.
func (s *Settings) ToLogConfig() logging.Config {
	return logging.Config{
		Level:      s.LogLevel,
		Format:     s.LogFormat,
		File:       s.LogFile,
		MaxSizeMB:  s.LogMaxSizeMB,
		MaxBackups: s.LogMaxBackups,
		MaxAgeDays: s.LogMaxAgeDays,
	}
}

// provider returns the normalized provider name. Unknown names are passed
// through so backend.New can report them.
func (s *Settings) provider() backend.Provider {
	if p, err := backend.ParseProvider(s.Provider); err == nil {
		return p
	}
	return backend.Provider(s.Provider)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
