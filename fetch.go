package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/xattr"
	"github.com/schollz/progressbar/v3"
	"github.com/zeebo/blake3"
	"github.com/zeebo/errs"
	"golang.org/x/term"
)

var errDownloadFailed = errs.Class("download failed")

// defaultChunkSize is used when the server does not declare a usable
// Content-Length.
const defaultChunkSize = 32 * 1024

func spawnProgressBar(contentLength int64, description string, useSpinnerType bool) *progressbar.ProgressBar {
	if useSpinnerType {
		return progressbar.NewOptions64(contentLength,
			progressbar.OptionSetDescription(description),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionFullWidth(),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSpinnerType(68),
		)
	}

	return progressbar.NewOptions64(contentLength,
		progressbar.OptionSetDescription(description),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// chunkSize reads roughly 1% of the archive per iteration, clamped so a
// missing, zero or tiny Content-Length can never yield a zero (or absurd)
// chunk.
func chunkSize(contentLength int64) int {
	chunk := contentLength / 100
	if chunk < 4096 {
		return defaultChunkSize
	}
	if chunk > 1<<20 {
		return 1 << 20
	}
	return int(chunk)
}

// downloadArchive fetches url into destination, streaming with a progress
// bar. The call is idempotent: an archive that is already present and whose
// recorded checksum still matches is not downloaded again. On success a
// blake3 checksum sidecar is written next to the archive so a later run can
// tell a complete download from a truncated one.
func downloadArchive(ctx context.Context, out *teeWriter, logger *log.Logger, url, destination string) error {
	if fileExists(destination) {
		ok, err := sidecarMatches(destination)
		if err != nil {
			return errDownloadFailed.Wrap(err)
		}
		if ok {
			logger.Info("Already downloaded", "archive", filepath.Base(destination))
			return nil
		}
		logger.Warn("Existing archive does not match its recorded checksum, downloading again", "archive", filepath.Base(destination))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return errDownloadFailed.New("failed to create request for %s: %v", url, err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("User-Agent", fmt.Sprintf("mpinstall/%s", version))

	logger.Info("Downloading", "url", url)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return errDownloadFailed.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errDownloadFailed.New("unexpected status %s from %s", resp.Status, url)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return errDownloadFailed.New("failed to create parent directories for %s: %v", destination, err)
	}

	tempFile := destination + ".tmp"
	outFile, err := os.Create(tempFile)
	if err != nil {
		return errDownloadFailed.Wrap(err)
	}
	defer outFile.Close()

	downloaded, sum, err := streamBody(ctx, out, resp.Body, outFile, resp.ContentLength, url)
	if err != nil {
		_ = os.Remove(tempFile)
		return errDownloadFailed.Wrap(err)
	}

	if err := os.Rename(tempFile, destination); err != nil {
		_ = os.Remove(tempFile)
		return errDownloadFailed.Wrap(err)
	}

	if err := os.WriteFile(sidecarPath(destination), []byte(sum+"\n"), 0644); err != nil {
		return errDownloadFailed.New("failed to record checksum for %s: %v", destination, err)
	}

	// Mark the archive as ours. Not every filesystem supports extended
	// attributes, so a failure here is not fatal.
	_ = xattr.Set(destination, "user.ManagedBy", []byte("mpinstall"))

	logger.Info("Read bytes", "count", downloaded, "b3sum", sum)
	return nil
}

// streamBody copies body into outFile chunk by chunk, drawing a progress bar
// when stdout is a terminal. The log mirror is suspended only for the
// duration of the transfer so redraws never flood the log while everything
// logged afterwards still reaches it. Returns the byte count and the hex
// blake3 sum of the transferred data.
func streamBody(ctx context.Context, out *teeWriter, body io.Reader, outFile io.Writer, contentLength int64, description string) (int64, string, error) {
	out.suspendMirror()
	defer out.resumeMirror()

	var bar *progressbar.ProgressBar
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar = spawnProgressBar(contentLength, description, contentLength <= 0)
		defer bar.Close()
	}

	var downloaded int64
	buf := make([]byte, chunkSize(contentLength))
	hash := blake3.New()

	for {
		select {
		case <-ctx.Done():
			return downloaded, "", ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := outFile.Write(buf[:n]); werr != nil {
				return downloaded, "", werr
			}
			if _, werr := hash.Write(buf[:n]); werr != nil {
				return downloaded, "", werr
			}
			downloaded += int64(n)
			if bar != nil {
				bar.Add(n)
			}
		}
		if err == io.EOF {
			return downloaded, hex.EncodeToString(hash.Sum(nil)), nil
		}
		if err != nil {
			return downloaded, "", err
		}
	}
}

func sidecarPath(archivePath string) string {
	return archivePath + ".b3sum"
}

// sidecarMatches reports whether the archive's recorded blake3 checksum still
// matches its content. An archive without a sidecar is trusted as-is, so
// re-runs against pre-seeded archives stay offline.
func sidecarMatches(archivePath string) (bool, error) {
	recorded, err := os.ReadFile(sidecarPath(archivePath))
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	sum, err := calculateChecksum(archivePath)
	if err != nil {
		return false, err
	}
	return sum == strings.TrimSpace(string(recorded)), nil
}

// calculateChecksum returns the hex blake3 sum of the file at path.
func calculateChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := blake3.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// fileExists checks if a file exists.
func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
