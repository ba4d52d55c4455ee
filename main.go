// PROGRAM: MPINSTALL
// PURPOSE: Portable MacPorts provisioning
// DESCRIPTION: Installs the MacPorts package management infrastructure into a
// custom directory tree so multiple installations can coexist (e.g. on a USB
// drive) and be removed cleanly. Picks the latest release automatically and
// falls back to HTTP syncing when rsync (port 873) is blocked by a firewall.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/breml/rootcerts"
	"github.com/urfave/cli/v3"
)

const version = "1.0.0"

const (
	extraVerbose              int8 = 2
	normalVerbosity           int8 = 1
	silentVerbosityWithErrors int8 = -1
)

var verbosityLevel = normalVerbosity

func main() {
	app := &cli.Command{
		Name:        "mpinstall",
		Usage:       "Install the MacPorts infrastructure into a custom directory",
		Version:     version,
		Description: "Builds and installs the latest MacPorts release under a private prefix, then updates it, switching to an HTTP source when rsync is blocked",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Run in extra verbose mode",
			},
			&cli.BoolFlag{
				Name:  "silent",
				Usage: "Run in silent mode, only errors will be shown",
			},
		},
		Commands: []*cli.Command{
			installCommand(),
			listCommand(),
		},
		EnableShellCompletion: true,
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// applyGlobalFlags maps the root verbosity flags onto the package-wide level.
func applyGlobalFlags(c *cli.Command) {
	if c.Bool("verbose") {
		verbosityLevel = extraVerbose
	}
	if c.Bool("silent") {
		verbosityLevel = silentVerbosityWithErrors
	}
}
