package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/radar-music/radar/internal/app"
	"github.com/radar-music/radar/internal/config"
	"github.com/radar-music/radar/internal/logging"
	"github.com/radar-music/radar/internal/tui"
)

func main() {
	configPath := pflag.String("config", config.DefaultPath(), "Path to settings file")
	envFile := pflag.String("env-file", ".env", "Load RADAR_* variables from this file if it exists")
	pflag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	if err := config.LoadEnvFiles(envFile); err != nil {
		return err
	}
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := settings.ApplyEnv(); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	// The alternate screen owns the terminal; logs go to the file sink only.
	logCfg := settings.ToLogConfig()
	if logCfg.File == "" {
		logCfg.File = filepath.Join(config.Dir(), "radar-tui.log")
	}
	logger, err := logging.New(logCfg, io.Discard)
	if err != nil {
		return err
	}
	defer logger.Close()

	a := app.New(settings, logger.Logger)
	defer a.Close()

	return tui.Run(a)
}
