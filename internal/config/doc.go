// Package config provides configuration management for radar.
//
// This package handles:
//   - Loading and saving settings from JSON files (comments allowed)
//   - Default configuration values
//   - RADAR_* environment overrides, optionally read from .env files
//   - Conversion to the option structs of other packages
//
// # Loading
//
//	if err := config.LoadEnvFiles(".env"); err != nil {
//	    log.Fatal(err)
//	}
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := settings.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Saving Settings
//
//	settings.Provider = "turbo"
//	err := settings.Save(config.DefaultPath())
//
// # Configuration Options
//
// Settings includes options for:
//   - Upload provider, node and chunking
//   - Chunk retry behavior and HTTP timeout
//   - Registration endpoint and pacing
//   - Price and balance endpoints
//   - Wallet and journal locations
//   - Artwork normalization and ID3 fallback
//   - Log level, format and rotation
package config
