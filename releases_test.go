package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const listingPage = `<html><body>
<a href="2.3.4/">2.3.4/</a>
<a href="2.10.0/">2.10.0/</a>
<a href="2.3.10/">2.3.10/</a>
<a href="latest/">latest/</a>
</body></html>`

func TestVersionSortKeyOrdersNumerically(t *testing.T) {
	tests := []struct {
		lower, higher [3]string
	}{
		{[3]string{"9", "0", "0"}, [3]string{"10", "0", "0"}},
		{[3]string{"2", "3", "10"}, [3]string{"2", "10", "0"}},
		{[3]string{"2", "3", "4"}, [3]string{"2", "3", "10"}},
		{[3]string{"1", "99999", "0"}, [3]string{"2", "0", "0"}},
	}
	for _, tt := range tests {
		lo := versionSortKey(tt.lower[0], tt.lower[1], tt.lower[2])
		hi := versionSortKey(tt.higher[0], tt.higher[1], tt.higher[2])
		if lo >= hi {
			t.Errorf("versionSortKey(%v)=%q should sort before versionSortKey(%v)=%q", tt.lower, lo, tt.higher, hi)
		}
	}
}

func TestListReleasesOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer srv.Close()

	releases, err := listReleases(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("listReleases failed: %v", err)
	}

	want := []string{"MacPorts-2.3.4.tar.bz2", "MacPorts-2.3.10.tar.bz2", "MacPorts-2.10.0.tar.bz2"}
	if len(releases) != len(want) {
		t.Fatalf("expected %d releases, got %d", len(want), len(releases))
	}
	for i, rel := range releases {
		if rel.Archive != want[i] {
			t.Errorf("release %d: expected %s, got %s", i, want[i], rel.Archive)
		}
	}

	latest := releases[len(releases)-1]
	if latest.Archive != "MacPorts-2.10.0.tar.bz2" {
		t.Errorf("latest release should be 2.10.0, got %s", latest.Archive)
	}
	wantURL := srv.URL + "/2.10.0/MacPorts-2.10.0.tar.bz2"
	if latest.URL != wantURL {
		t.Errorf("expected URL %s, got %s", wantURL, latest.URL)
	}
	if latest.SourceDir() != "MacPorts-2.10.0" {
		t.Errorf("unexpected source dir %s", latest.SourceDir())
	}
}

func TestListReleasesEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>nothing here</body></html>")
	}))
	defer srv.Close()

	_, err := listReleases(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for a listing without release links")
	}
	if !strings.Contains(err.Error(), "no release links") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestListReleasesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := listReleases(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "HEAD" {
			t.Errorf("expected a HEAD request, got %s", r.Method)
		}
		w.Header().Set("Content-Length", "12345")
	}))
	defer srv.Close()

	size, err := contentLength(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("contentLength failed: %v", err)
	}
	if size != 12345 {
		t.Errorf("expected 12345, got %d", size)
	}
}
