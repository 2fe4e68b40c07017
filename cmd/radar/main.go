package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/radar-music/radar/internal/app"
	"github.com/radar-music/radar/internal/config"
	"github.com/radar-music/radar/internal/logging"
)

// command is a radar subcommand.
type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"upload":     {"Upload a release described by a manifest", runUpload},
	"price":      {"Estimate the cost of uploading a release or byte count", runPrice},
	"balance":    {"Show the provider and wallet balance", runBalance},
	"currencies": {"List currencies accepted for credit top-ups", runCurrencies},
	"topup":      {"Create a checkout session to buy upload credits", runTopUp},
	"register":   {"Register uploaded tracks as assets", runRegister},
	"history":    {"List journaled release uploads", runHistory},
	"keygen":     {"Generate a new wallet key file", runKeygen},
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		printUsage()
		os.Exit(1)
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	if err := cmd.run(ctx, os.Args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Radar - publish music releases to the permaweb")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  radar <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-11s %s\n", name, commands[name].summary)
	}
	fmt.Println()
	fmt.Println("For interactive mode, use: radar-tui")
}

// globalFlags are accepted by every command.
type globalFlags struct {
	configPath string
	envFile    string
	provider   string
	node       string
	walletPath string
	logLevel   string
	verbose    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", config.DefaultPath(), "Path to settings file")
	fs.StringVar(&g.envFile, "env-file", ".env", "Load RADAR_* variables from this file if it exists")
	fs.StringVarP(&g.provider, "provider", "p", "", "Upload provider: irys or turbo (overrides config)")
	fs.StringVar(&g.node, "node", "", "Bundling node name, e.g. node1 (overrides config)")
	fs.StringVarP(&g.walletPath, "wallet", "w", "", "Wallet key file (overrides config)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "Show verbose output")
}

// open resolves settings from file, environment and flags, in that
// order, and builds the App. The returned cleanup must be called.
func (g *globalFlags) open() (*app.App, func(), error) {
	if err := config.LoadEnvFiles(g.envFile); err != nil {
		return nil, nil, err
	}

	settings, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, nil, err
	}

	// Apply flags
	if g.provider != "" {
		settings.Provider = g.provider
	}
	if g.node != "" {
		settings.Node = g.node
	}
	if g.walletPath != "" {
		settings.WalletPath = g.walletPath
	}
	if g.logLevel != "" {
		settings.LogLevel = g.logLevel
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(settings.ToLogConfig(), os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	a := app.New(settings, logger.Logger)
	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing journal", "error", err)
		}
		logger.Close()
	}
	return a, cleanup, nil
}

// newFlagSet creates a flag set with the global flags registered.
func newFlagSet(name string, g *globalFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("radar "+name, pflag.ContinueOnError)
	fs.SortFlags = false
	g.register(fs)
	return fs
}
