package main

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zeebo/errs"
)

var errCommandFailed = errs.Class("command failed")

// cmdResult is what every shell command execution produces: the exit status
// and the full combined (stdout+stderr) transcript.
type cmdResult struct {
	Status int
	Output string
}

type runOpts struct {
	// quiet captures output without streaming it to the writer.
	quiet bool
	// tolerant treats a non-zero exit status as a result, not an error.
	tolerant bool
}

// commandRunner executes a shell command and reports its combined output and
// exit status. Implementations stream output incrementally so long-running
// builds stay visible.
type commandRunner interface {
	run(ctx context.Context, command string, opts runOpts) (cmdResult, error)
}

// shellRunner runs commands through `sh -c`, streaming combined output to out
// as it is produced.
type shellRunner struct {
	out    *teeWriter
	logger *log.Logger
}

func newShellRunner(out *teeWriter, logger *log.Logger) *shellRunner {
	return &shellRunner{out: out, logger: logger}
}

func (r *shellRunner) run(ctx context.Context, command string, opts runOpts) (cmdResult, error) {
	r.logger.Info("Running command", "cmd", command)

	// Silent mode suppresses live streaming; failures still flush the
	// captured transcript below.
	if verbosityLevel <= silentVerbosityWithErrors {
		opts.quiet = true
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	// A single pipe carries stdout and stderr so the transcript keeps the
	// order the process produced.
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return cmdResult{Status: -1}, errCommandFailed.Wrap(err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return cmdResult{Status: -1}, errCommandFailed.New("%q could not start: %v", command, err)
	}

	var transcript strings.Builder
	readErr := r.streamPipe(pipe, &transcript, opts.quiet)

	status := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		} else {
			return cmdResult{Status: -1, Output: transcript.String()}, errCommandFailed.Wrap(err)
		}
	}
	if readErr != nil {
		return cmdResult{Status: status, Output: transcript.String()},
			errCommandFailed.New("%q output could not be read fully: %v", command, readErr)
	}

	res := cmdResult{Status: status, Output: transcript.String()}
	if status != 0 && !opts.tolerant {
		// Flush the captured transcript when display was suppressed so the
		// failure is diagnosable.
		if opts.quiet {
			r.out.Write([]byte(res.Output))
		}
		r.logger.Error("Command failed", "cmd", command, "status", status)
		return res, errCommandFailed.New("%q exited with status %d", command, status)
	}
	return res, nil
}

// streamPipe copies pipe into transcript, mirroring to out unless quiet. EOF
// ends the stream normally; any other read error is returned so a broken pipe
// never passes for a complete transcript.
func (r *shellRunner) streamPipe(pipe io.Reader, transcript *strings.Builder, quiet bool) error {
	buf := make([]byte, 4096)
	for {
		n, err := pipe.Read(buf)
		if n > 0 {
			transcript.Write(buf[:n])
			if !quiet {
				r.out.Write(buf[:n])
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
