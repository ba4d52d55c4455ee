package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zeebo/errs"
)

var errInstallFailed = errs.Class("install failed")

func installCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Download, build and install the latest MacPorts release",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "blddir",
				Aliases: []string{"b"},
				Usage:   "build directory (default: <cwd>/bld)",
			},
			&cli.StringFlag{
				Name:    "reldir",
				Aliases: []string{"r"},
				Usage:   "release directory (default: <cwd>/rel)",
			},
			&cli.BoolFlag{
				Name:    "tee",
				Aliases: []string{"t"},
				Usage:   "tee output to stdout and to a timestamped logfile",
			},
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
				return errInstallFailed.Wrap(err)
			}
			if c.String("blddir") != "" {
				cfg.BuildDir = c.String("blddir")
			}
			if c.String("reldir") != "" {
				cfg.ReleaseDir = c.String("reldir")
			}
			if c.String("url") != "" {
				cfg.MirrorURL = c.String("url")
			}
			if c.Bool("tee") {
				cfg.TeeLog = true
			}
			if err := cfg.absDirs(); err != nil {
				return errInstallFailed.Wrap(err)
			}

			out := newConsoleWriter(os.Stdout)
			if cfg.TeeLog {
				logPath := defaultLogPath(time.Now())
				out, err = newTeeWriter(os.Stdout, logPath)
				if err != nil {
					return errInstallFailed.Wrap(err)
				}
				defer out.Close()
				newLogger(out).Info("Logging", "file", logPath)
			}

			return install(ctx, cfg, out)
		},
	}
}

// install runs the whole provisioning flow: discover releases, download the
// latest, build it into the release directory, update the installation and
// print the final usage instructions.
func install(ctx context.Context, cfg *Config, out *teeWriter) error {
	logger := newLogger(out)
	runner := newShellRunner(out, logger)

	logger.Info("Install MacPorts")

	releases, err := listReleases(ctx, cfg.MirrorURL)
	if err != nil {
		return err
	}
	printReleases(ctx, out, logger, cfg.MirrorURL, releases)

	latest := releases[len(releases)-1]
	logger.Info("Selected release",
		"base", latest.SourceDir(),
		"blddir", cfg.BuildDir,
		"reldir", cfg.ReleaseDir,
		"tarfile", latest.Archive,
		"url", latest.URL)

	if err := checkXcode(ctx, runner, logger); err != nil {
		return err
	}

	if !fileExists(cfg.BuildDir) {
		logger.Info("Creating build directory tree", "dir", cfg.BuildDir)
		if err := os.MkdirAll(cfg.BuildDir, 0755); err != nil {
			return errInstallFailed.Wrap(err)
		}
	}

	archivePath := filepath.Join(cfg.BuildDir, latest.Archive)
	if err := downloadArchive(ctx, out, logger, latest.URL, archivePath); err != nil {
		return err
	}

	if err := buildArchive(ctx, cfg, runner, logger, latest); err != nil {
		return err
	}

	updateCmd, err := updatePorts(ctx, cfg, runner, logger)
	if err != nil {
		return err
	}

	printInstructions(out, cfg.ReleaseDir, cfg.BuildDir, updateCmd)
	logger.Info("Done")
	return nil
}
