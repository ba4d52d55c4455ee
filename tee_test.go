package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTeeWriterMirrorsToFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "run.log")

	tee, err := newTeeWriter(&console, logPath)
	if err != nil {
		t.Fatalf("newTeeWriter failed: %v", err)
	}
	if _, err := tee.Write([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	if err := tee.Close(); err != nil {
		t.Fatal(err)
	}

	if console.String() != "hello\n" {
		t.Errorf("console got %q", console.String())
	}
	logged, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(logged) != "hello\n" {
		t.Errorf("log file got %q", logged)
	}
}

func TestTeeWriterSuspendKeepsProgressOutOfLog(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "run.log")

	tee, err := newTeeWriter(&console, logPath)
	if err != nil {
		t.Fatal(err)
	}
	tee.Write([]byte("before\n"))
	tee.suspendMirror()
	tee.Write([]byte("progress spam\r"))
	tee.resumeMirror()
	tee.Write([]byte("after\n"))
	tee.Close()

	if want := "before\nprogress spam\rafter\n"; console.String() != want {
		t.Errorf("console got %q, want %q", console.String(), want)
	}
	logged, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := "before\nafter\n"; string(logged) != want {
		t.Errorf("log file got %q, want %q", logged, want)
	}
}

func TestTeeWriterAppends(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(logPath, []byte("earlier run\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tee, err := newTeeWriter(&console, logPath)
	if err != nil {
		t.Fatal(err)
	}
	tee.Write([]byte("this run\n"))
	tee.Close()

	logged, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := "earlier run\nthis run\n"; string(logged) != want {
		t.Errorf("log file got %q, want %q", logged, want)
	}
}

func TestConsoleWriterHasNoMirror(t *testing.T) {
	var console bytes.Buffer
	w := newConsoleWriter(&console)

	w.suspendMirror()
	w.resumeMirror()
	if _, err := w.Write([]byte("plain\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if console.String() != "plain\n" {
		t.Errorf("console got %q", console.String())
	}
}

func TestDefaultLogPath(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 4, 0, 0, time.UTC)
	if got, want := defaultLogPath(now), "mpinstall-202608301504.log"; got != want {
		t.Errorf("defaultLogPath = %q, want %q", got, want)
	}
}
