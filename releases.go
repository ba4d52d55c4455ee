package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/errs"
)

var errListReleasesFailed = errs.Class("list releases failed")

// release is one downloadable MacPorts version discovered on the listing
// page: the canonical archive name and its URL, keyed for version sorting.
type release struct {
	Archive string
	URL     string
	sortKey string
}

// SourceDir is the directory name the archive extracts into.
func (r release) SourceDir() string {
	return strings.TrimSuffix(r.Archive, ".tar.bz2")
}

// versionLinkRegex matches release subdirectory links such as href="2.10.5/"
// on the mirror's HTML index page.
var versionLinkRegex = regexp.MustCompile(`href="(\d+)\.(\d+)\.(\d+)/"`)

// versionSortKey zero-pads each numeric component to five digits so plain
// string ordering matches numeric ordering ("9" sorts before "10").
func versionSortKey(major, minor, patch string) string {
	return zfill(major) + "-" + zfill(minor) + "-" + zfill(patch)
}

func zfill(s string) string {
	if len(s) >= 5 {
		return s
	}
	return strings.Repeat("0", 5-len(s)) + s
}

// listingClient bounds the cheap metadata requests (index page, archive
// sizes). The archive download itself uses a plain client because a build
// tarball transfer can legitimately take a long time.
var listingClient = &http.Client{Timeout: 30 * time.Second}

// listReleases fetches the mirror index page and returns every discovered
// release ordered ascending by version. The last element is the latest.
func listReleases(ctx context.Context, baseURL string) ([]release, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL, nil)
	if err != nil {
		return nil, errListReleasesFailed.Wrap(err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("mpinstall/%s", version))

	resp, err := listingClient.Do(req)
	if err != nil {
		return nil, errListReleasesFailed.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errListReleasesFailed.New("unexpected status %s from %s", resp.Status, baseURL)
	}

	vermap := make(map[string]release)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, match := range versionLinkRegex.FindAllStringSubmatch(scanner.Text(), -1) {
			ver := fmt.Sprintf("%s.%s.%s", match[1], match[2], match[3])
			archive := fmt.Sprintf("MacPorts-%s.tar.bz2", ver)
			vermap[ver] = release{
				Archive: archive,
				URL:     baseURL + ver + "/" + archive,
				sortKey: versionSortKey(match[1], match[2], match[3]),
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errListReleasesFailed.Wrap(err)
	}

	if len(vermap) == 0 {
		return nil, errListReleasesFailed.New("no release links found at %s", baseURL)
	}

	releases := make([]release, 0, len(vermap))
	for _, rel := range vermap {
		releases = append(releases, rel)
	}
	sort.Slice(releases, func(i, j int) bool {
		return releases[i].sortKey < releases[j].sortKey
	})
	return releases, nil
}

// contentLength asks the server for the size of the resource at url without
// downloading it.
func contentLength(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", fmt.Sprintf("mpinstall/%s", version))

	resp, err := listingClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	return resp.ContentLength, nil
}
