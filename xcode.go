package main

import (
	"context"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

const xcodeDeveloperDir = "/Applications/Xcode.app/Contents/Developer"

// checkXcode verifies that the Xcode command line tools are present and the
// license has been accepted, installing them when missing. MacPorts cannot
// configure without them. On non-darwin hosts this is a no-op.
func checkXcode(ctx context.Context, runner commandRunner, logger *log.Logger) error {
	if runtime.GOOS != "darwin" {
		return nil
	}

	res, err := runner.run(ctx, "sudo xcode-select -p", runOpts{tolerant: true})
	if err != nil {
		return err
	}
	if !strings.Contains(res.Output, xcodeDeveloperDir) {
		logger.Info("Could not find the expected developer directory", "expected", xcodeDeveloperDir)
		logger.Info("Installing Xcode command line tools")
		if _, err := runner.run(ctx, "sudo xcode-select --install", runOpts{}); err != nil {
			return err
		}
	} else {
		logger.Info("Xcode installed")
	}

	// A clang invocation fails until the license has been agreed to.
	_, err = runner.run(ctx, "sudo clang --version", runOpts{})
	return err
}
