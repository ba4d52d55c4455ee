package main

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger builds the run logger on top of the given writer, honoring the
// package-wide verbosity level.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "mpinstall",
	})
	switch {
	case verbosityLevel >= extraVerbose:
		logger.SetLevel(log.DebugLevel)
	case verbosityLevel <= silentVerbosityWithErrors:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
