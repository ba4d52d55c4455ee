package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zeebo/errs"
)

var errUpdateFailed = errs.Class("update failed")

const (
	selfupdateCmd = "sudo port -v selfupdate"
	syncCmd       = "sudo port -v sync"
)

// updatePorts makes the freshly installed port command resolvable, then
// brings its package metadata up to date. The normal path is the built-in
// selfupdate, which syncs over rsync; when that fails (typically because
// port 873 is blocked by a firewall) the sources configuration is rewritten
// to an HTTP mirror and the update is retried with sync. The returned string
// is whichever update command ultimately succeeded, for display to the user.
func updatePorts(ctx context.Context, cfg *Config, runner commandRunner, logger *log.Logger) (string, error) {
	logger.Info("Updating MacPorts")

	// Put the new installation first on the search paths so that commands
	// like "port" resolve to the freshly installed binaries.
	sep := string(os.PathListSeparator)
	os.Setenv("PATH", filepath.Join(cfg.ReleaseDir, "bin")+sep+os.Getenv("PATH"))
	os.Setenv("MANPATH", filepath.Join(cfg.ReleaseDir, "share", "man")+sep+os.Getenv("MANPATH"))

	if _, err := runner.run(ctx, "which port", runOpts{}); err != nil {
		return "", err
	}

	res, err := runner.run(ctx, selfupdateCmd, runOpts{tolerant: true})
	if err != nil {
		return "", err
	}
	if res.Status == 0 {
		logger.Info("MacPorts successfully installed", "dir", cfg.ReleaseDir)
		return selfupdateCmd, nil
	}

	logger.Info("Rsync update failed. Rsync operations may be blocked. Trying another option.")
	if err := patchSourcesConf(cfg, logger); err != nil {
		return "", err
	}

	if _, err := runner.run(ctx, syncCmd, runOpts{}); err != nil {
		return "", err
	}
	logger.Info(`Alternative approach worked! You must use "sync" to update instead of "selfupdate".`)
	logger.Info(`To allow the use of "selfupdate", open up port 873 for rsync on your firewall.`)

	logger.Info("MacPorts successfully installed", "dir", cfg.ReleaseDir)
	return syncCmd, nil
}

// patchSourcesConf switches the ports tree source from rsync to the HTTP
// fallback mirror. The original file is backed up once to sources.conf.orig;
// re-running against an already patched file changes nothing.
func patchSourcesConf(cfg *Config, logger *log.Logger) error {
	conf := filepath.Join(cfg.ReleaseDir, "etc", "macports", "sources.conf")
	orig := conf + ".orig"

	if !fileExists(orig) {
		if err := copyFile(conf, orig); err != nil {
			return errUpdateFailed.New("failed to back up %s: %v", conf, err)
		}
		logger.Info("Backed up sources configuration", "backup", orig)
	}

	info, err := os.Stat(conf)
	if err != nil {
		return errUpdateFailed.Wrap(err)
	}
	if err := os.Chmod(conf, 0666); err != nil {
		return errUpdateFailed.Wrap(err)
	}

	data, err := os.ReadFile(conf)
	if err != nil {
		return errUpdateFailed.Wrap(err)
	}

	patched, changed := rewriteRsyncSources(string(data), cfg.FallbackSource)
	if changed {
		if err := os.WriteFile(conf, []byte(patched), info.Mode().Perm()); err != nil {
			return errUpdateFailed.Wrap(err)
		}
		logger.Info("Switched sources to the HTTP mirror", "conf", conf)
	}

	if err := os.Chmod(conf, 0644); err != nil {
		return errUpdateFailed.Wrap(err)
	}
	return nil
}

// rewriteRsyncSources replaces every line that begins with "rsync:" by the
// fallback HTTP source, keeping the original line as a comment directly
// below it. Lines already commented out are left alone, which makes the
// transformation idempotent.
func rewriteRsyncSources(data, fallbackSource string) (string, bool) {
	lines := strings.Split(data, "\n")
	out := make([]string, 0, len(lines)+1)
	changed := false
	for _, line := range lines {
		if strings.HasPrefix(line, "rsync:") {
			out = append(out, fallbackSource, "##"+line)
			changed = true
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), changed
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
