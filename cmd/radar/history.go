package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
)

func runHistory(ctx context.Context, args []string) error {
	var g globalFlags
	fs := newFlagSet("history", &g)
	limit := fs.IntP("limit", "n", 10, "Number of releases to show")
	items := fs.Bool("items", false, "List the uploaded items of each release")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	j, err := a.Journal()
	if err != nil {
		return err
	}
	releases, err := j.Releases(ctx, *limit)
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		fmt.Println("No uploads yet.")
		return nil
	}

	for _, r := range releases {
		fmt.Printf("#%d %s [%s] %s via %s, %d item(s)\n",
			r.ID, r.Title, r.State, humanize.Time(r.StartedAt), r.Provider, r.Items)
		if !*items {
			continue
		}

		list, err := j.Items(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, it := range list {
			registered := ""
			if it.Registered {
				registered = " registered"
			}
			fmt.Printf("    %-10s %s %s (%s)%s\n", it.Kind, it.ContentID, it.Title, humanize.Bytes(uint64(it.Size)), registered)
		}
	}
	return nil
}
