package main

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/errs"
)

var errBuildFailed = errs.Class("build failed")

// extractArchive unpacks the tarball at archivePath into destDir. Both
// bzip2 (the MacPorts release format) and gzip tarballs are handled.
func extractArchive(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errBuildFailed.Wrap(err)
	}
	defer file.Close()

	var reader io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".tar.bz2"):
		reader = bzip2.NewReader(file)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return errBuildFailed.Wrap(err)
		}
		defer gz.Close()
		reader = gz
	default:
		return errBuildFailed.New("unsupported archive format: %s", filepath.Base(archivePath))
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errBuildFailed.Wrap(err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, hdr.FileInfo().Mode().Perm()); err != nil {
				return errBuildFailed.Wrap(err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errBuildFailed.Wrap(err)
			}
			if err := writeRegular(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errBuildFailed.Wrap(err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return errBuildFailed.Wrap(err)
			}
		}
	}
	return nil
}

// safeJoin joins an archive entry name onto destDir, refusing entries that
// would escape it.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	if target == filepath.Clean(destDir) {
		return target, nil
	}
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", errBuildFailed.New("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func writeRegular(tr io.Reader, target string, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return errBuildFailed.Wrap(err)
	}
	defer out.Close()
	if _, err := io.Copy(out, tr); err != nil {
		return errBuildFailed.Wrap(err)
	}
	return nil
}

// buildArchive extracts the downloaded archive inside the build directory
// and runs the upstream build sequence in the extracted source tree. The
// call is idempotent: an already extracted source directory means the build
// has been done and the whole step is skipped.
func buildArchive(ctx context.Context, cfg *Config, runner commandRunner, logger *log.Logger, rel release) error {
	srcDir := filepath.Join(cfg.BuildDir, rel.SourceDir())
	if fileExists(srcDir) {
		logger.Info("Already built", "dir", srcDir)
		return nil
	}

	archivePath := filepath.Join(cfg.BuildDir, rel.Archive)
	logger.Info("Extracting", "archive", rel.Archive)
	if err := extractArchive(archivePath, cfg.BuildDir); err != nil {
		return err
	}

	return buildSource(ctx, cfg, runner, logger, srcDir)
}

// buildSource runs configure, make and the privileged install inside srcDir,
// restoring the previous working directory no matter how the sequence ends.
func buildSource(ctx context.Context, cfg *Config, runner commandRunner, logger *log.Logger, srcDir string) error {
	prevDir, err := os.Getwd()
	if err != nil {
		return errBuildFailed.Wrap(err)
	}
	if err := os.Chdir(srcDir); err != nil {
		return errBuildFailed.Wrap(err)
	}
	defer func() {
		if err := os.Chdir(prevDir); err != nil {
			logger.Error("Failed to restore working directory", "dir", prevDir, "err", err)
		}
	}()
	logger.Info("Changed working directory", "dir", srcDir)
	logger.Info("Building", "dir", srcDir)

	// Stale artifacts from a previous system-wide installation can shadow
	// this one; removing them is best effort.
	if _, err := runner.run(ctx, `sudo find /Library/ -type f -name '*macports*' -delete`, runOpts{tolerant: true}); err != nil {
		return err
	}

	cmds := []string{
		"./configure --help > configure.help",
		fmt.Sprintf("./configure --prefix=%q --with-applications-dir=%q", cfg.ReleaseDir, cfg.ReleaseDir+"/Applications"),
		"make",
		"sudo make install",
	}
	for _, cmd := range cmds {
		if _, err := runner.run(ctx, cmd, runOpts{}); err != nil {
			return err
		}
	}
	return nil
}
