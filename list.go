package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the MacPorts releases available on the mirror",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "MacPorts download url (default: the distribution mirror root)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			applyGlobalFlags(c)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if c.String("url") != "" {
				cfg.MirrorURL = c.String("url")
			}

			out := newConsoleWriter(os.Stdout)
			logger := newLogger(out)

			releases, err := listReleases(ctx, cfg.MirrorURL)
			if err != nil {
				return err
			}
			printReleases(ctx, out, logger, cfg.MirrorURL, releases)
			return nil
		},
	}
}

// printReleases writes one line per release with its size on the mirror,
// oldest first. Sizes the server will not reveal show up as zero.
func printReleases(ctx context.Context, out *teeWriter, logger *log.Logger, baseURL string, releases []release) {
	logger.Info("List available releases", "url", baseURL)
	for _, rel := range releases {
		size, err := contentLength(ctx, rel.URL)
		if err != nil {
			logger.Debug("Could not determine archive size", "url", rel.URL, "err", err)
			size = 0
		}
		fmt.Fprintf(out, "%-28s  %10d  %s\n", rel.Archive, size, rel.URL)
	}
	fmt.Fprintf(out, "%d items\n", len(releases))
}
