package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/radar-music/radar/internal/journal"
)

// runRegister registers content ids passed as arguments, or with
// --pending every journaled track whose registration failed.
func runRegister(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("register", &g)
	pending := fs.Bool("pending", false, "Register every unregistered track from the journal")
	fs.Usage = func() {
		fmt.Println("Usage: radar register [options] (--pending | <content-id>...)")
		fmt.Println()
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pending == (fs.NArg() > 0) {
		fs.Usage()
		return errors.New("pass either --pending or content ids")
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	a.Settings.Register = true
	registrar := a.Registrar()

	var items []journal.Item
	j, jerr := a.Journal()
	if *pending {
		if jerr != nil {
			return jerr
		}
		if items, err = j.Pending(ctx); err != nil {
			return err
		}
	} else {
		for _, id := range fs.Args() {
			items = append(items, journal.Item{ContentID: id, Node: a.Settings.Node})
		}
	}

	if len(items) == 0 {
		fmt.Println("Nothing to register.")
		return nil
	}

	var failed int
	for _, item := range items {
		node := item.Node
		if node == "" {
			node = a.Settings.Node
		}

		reg, err := registrar.Register(ctx, item.ContentID, node)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			a.Logger.Warn("asset registration failed", "id", item.ContentID, "error", err)
			fmt.Printf("❌ %s: %v\n", item.ContentID, err)
			continue
		}

		if jerr == nil {
			if err := j.MarkRegistered(ctx, item.ContentID); err != nil && !errors.Is(err, journal.ErrNotFound) {
				a.Logger.Warn("journal update failed", "id", item.ContentID, "error", err)
			}
		}
		fmt.Printf("✅ %s → %s\n", item.ContentID, reg.ContractTxID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d registrations failed", failed, len(items))
	}
	return nil
}
