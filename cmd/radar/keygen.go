package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	ioutils "github.com/radar-music/radar/internal/io"
	"github.com/radar-music/radar/internal/wallet"
)

func runKeygen(ctx context.Context, args []string) error {
	var g globalFlags
	flags := newFlagSet("keygen", &g)
	force := flags.Bool("force", false, "Overwrite an existing key file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := g.open()
	if err != nil {
		return err
	}
	defer cleanup()

	path := ioutils.ResolvePath("", a.Settings.WalletPath)
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	fmt.Printf("Generating %d-bit key...\n", wallet.KeySize)
	key, err := wallet.Generate()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ioutils.EnsureParentDir(path); err != nil {
		return err
	}
	if err := key.Save(path); err != nil {
		return err
	}

	fmt.Printf("Wallet: %s\n", path)
	fmt.Printf("Address: %s\n", key.Address())
	return nil
}
