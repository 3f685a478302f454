// Command bmpfsmount mounts a bmpfs backing image at a host mountpoint,
// built with urfave/cli/v2 the way the teacher's cmd/main.go builds its
// cli.App.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Sena2K/bmpfs/fuseadapter"
)

func main() {
	app := &cli.App{
		Name:      "bmpfsmount",
		Usage:     "Mount a BMP-backed file system",
		ArgsUsage: "MOUNTPOINT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "o",
				Usage:    "mount options, e.g. image=/path/to/fs.bmp",
				Required: true,
			},
		},
		Action: mount,
	}

	if err := app.Run(os.Args); err != nil {
		log.Printf("bmpfsmount: %s", err)
		os.Exit(1)
	}
}

func mount(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one mountpoint argument is required")
	}
	mountpoint := c.Args().Get(0)

	imagePath, err := parseImageOption(c.String("o"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	return fuseadapter.Mount(ctx, mountpoint, imagePath)
}

// parseImageOption extracts the image=<path> mount option from a
// comma-separated -o value. A missing image= option is an exit-1 condition
// per the specification's CLI contract.
func parseImageOption(raw string) (string, error) {
	for _, opt := range splitComma(raw) {
		if len(opt) > len("image=") && opt[:len("image=")] == "image=" {
			return opt[len("image="):], nil
		}
	}
	return "", errors.New(`missing required mount option "image=<path>"`)
}

func splitComma(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
