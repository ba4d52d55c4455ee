package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// teeWriter mirrors console output into an append-mode log file. The mirror
// can be suspended so that download-progress redraws never flood the log.
// All components that need dual output receive this writer explicitly; there
// is no process-wide stream substitution.
type teeWriter struct {
	mu      sync.Mutex
	console io.Writer
	file    io.WriteCloser
	mirror  bool
}

// newConsoleWriter returns a teeWriter that only writes to console.
func newConsoleWriter(console io.Writer) *teeWriter {
	return &teeWriter{console: console}
}

// newTeeWriter returns a teeWriter that mirrors console writes into the
// append-mode log file at logPath.
func newTeeWriter(console io.Writer, logPath string) (*teeWriter, error) {
	file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %v", logPath, err)
	}
	return &teeWriter{console: console, file: file, mirror: true}, nil
}

func (t *teeWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.console.Write(p)
	if err != nil {
		return n, err
	}
	if t.file != nil && t.mirror {
		if _, err := t.file.Write(p); err != nil {
			return n, err
		}
	}
	return n, nil
}

// suspendMirror stops mirroring writes into the log file until resumeMirror
// is called. Console output is unaffected.
func (t *teeWriter) suspendMirror() {
	t.mu.Lock()
	t.mirror = false
	t.mu.Unlock()
}

func (t *teeWriter) resumeMirror() {
	t.mu.Lock()
	if t.file != nil {
		t.mirror = true
	}
	t.mu.Unlock()
}

func (t *teeWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	t.mirror = false
	return err
}

// defaultLogPath names the log file after the program plus a timestamp,
// e.g. mpinstall-202608301504.log in the current directory.
func defaultLogPath(now time.Time) string {
	return fmt.Sprintf("mpinstall-%s.log", now.Format("200601021504"))
}
