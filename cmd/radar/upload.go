package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/radar-music/radar/internal/app"
	"github.com/radar-music/radar/internal/journal"
	"github.com/radar-music/radar/internal/model"
	"github.com/radar-music/radar/internal/pricing"
	"github.com/radar-music/radar/internal/upload"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func runUpload(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("upload", &g)
	dryRun := fs.Bool("dry-run", false, "Load and price the release without uploading")
	noRegister := fs.Bool("no-register", false, "Skip asset registration")
	fs.Usage = func() {
		fmt.Println("Usage: radar upload [options] <manifest.yaml>")
		fmt.Println()
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one manifest is required")
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()
	if *noRegister {
		a.Settings.Register = false
	}

	fmt.Println("📡 Radar")
	fmt.Println(rule)
	fmt.Println()

	release, err := a.Loader().Load(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printRelease(release)

	provider, err := a.Provider()
	if err != nil {
		return err
	}
	var address string
	if w, err := a.Wallet(); err == nil {
		address = w.Address()
	}
	summary, err := a.Pricing().Summarize(ctx, provider, address, release.TotalSize(), a.Logger)
	if err != nil {
		return err
	}
	printSummary(summary)
	warnDuplicates(ctx, a, release)

	if *dryRun {
		fmt.Println("\n[Dry run - not uploading]")
		return nil
	}

	assembler, opts, err := a.NewAssembler(ctx, progressPrinter(g.verbose))
	if err != nil {
		return err
	}

	fmt.Println("\n📤 Starting upload...")
	fmt.Println()

	outcome, err := assembler.Upload(ctx, release, opts)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("✨ Complete! Published %d track(s), %d registered\n", len(outcome.TrackIDs), outcome.Registered())
	if outcome.CollectionID != "" {
		fmt.Printf("   Collection: %s\n", outcome.CollectionID)
	}
	for i, id := range outcome.TrackIDs {
		fmt.Printf("   %d. %s\n", i+1, id)
	}
	return nil
}

// progressPrinter prints progress events the way the interactive output
// expects them.
func progressPrinter(verbose bool) func(upload.ProgressEvent) {
	return func(event upload.ProgressEvent) {
		if event.Level == upload.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case upload.LevelError:
			prefix = "❌ "
		case upload.LevelWarning:
			prefix = "⚠️  "
		case upload.LevelSuccess:
			prefix = "✅ "
		case upload.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	}
}

func printRelease(r *model.Release) {
	fmt.Printf("Release: %s\n", r.Title)
	for i, track := range r.Tracks {
		title := track.Metadata.Title
		if title == "" {
			title = r.Title
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, title, humanize.Bytes(uint64(track.Audio.Size())))
	}
	fmt.Printf("Total size: %s\n", humanize.Bytes(uint64(r.TotalSize())))
}

func printSummary(s *pricing.Summary) {
	fmt.Printf("Provider: %s\n", s.Provider)
	fmt.Printf("Cost: %s\n", amountText(s.Cost))
	fmt.Printf("Balance: %s\n", amountText(s.Balance))
	if s.WalletBalance != nil {
		fmt.Printf("Wallet: %s\n", s.WalletBalance)
	}
	if enough, ok := s.Sufficient(); ok && !enough {
		fmt.Println("⚠️  Balance does not cover the upload cost")
	}
}

func amountText(a *pricing.Amount) string {
	if a == nil {
		return "unknown"
	}
	return a.String()
}

// warnDuplicates reports audio payloads that were published before.
func warnDuplicates(ctx context.Context, a *app.App, r *model.Release) {
	j, err := a.Journal()
	if err != nil {
		a.Logger.Debug("skipping duplicate check", "error", err)
		return
	}
	for i, track := range r.Tracks {
		item, err := j.FindByDigest(ctx, journal.Digest(track.Audio.Data))
		if errors.Is(err, journal.ErrNotFound) {
			continue
		}
		if err != nil {
			a.Logger.Warn("duplicate check failed", "track", i, "error", err)
			return
		}
		fmt.Printf("⚠️  Track %d was already published as %s (%s)\n", i+1, item.ContentID, item.CreatedAt.Format("2006-01-02"))
	}
}
