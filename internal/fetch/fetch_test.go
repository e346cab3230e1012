// fetch_test.go tests fallback ordering, response validation, skipping of
// existing files, retries and cancellation against httptest servers.

package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tools.zach/dev/lessondeck/internal/logger"
)

func quietLogger() *slog.Logger {
	return slog.New(logger.NewHandler(io.Discard, logger.LevelInfo))
}

func testFetcher(retries int) *Fetcher {
	client := NewClient(5*time.Second, retries, nil)
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = 5 * time.Millisecond
	return New(client, Options{
		UserAgent:         "lessondeck-test",
		MinBytes:          5000,
		SkipExistingBytes: 1000,
		Logger:            quietLogger(),
	})
}

func jpegBody(n int) []byte {
	b := bytes.Repeat([]byte{0xAB}, n)
	b[0], b[1] = 0xFF, 0xD8
	return b
}

func imageHandler(body []byte, ct string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ct)
		w.Write(body)
	}
}

// ///////////////////////////////////////////////
// Fallback
// ///////////////////////////////////////////////

func TestFetchFallsBackToSecondURL(t *testing.T) {
	body := jpegBody(6000)
	mux := http.NewServeMux()
	mux.HandleFunc("/missing.jpg", http.NotFound)
	mux.HandleFunc("/ok.jpg", imageHandler(body, "image/jpeg"))
	server := httptest.NewServer(mux)
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "images", "slide2.jpg")
	res, err := testFetcher(0).Fetch(context.Background(), "slide2",
		[]string{server.URL + "/missing.jpg", server.URL + "/ok.jpg"}, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.URL != server.URL+"/ok.jpg" {
		t.Errorf("URL = %q, want the second source", res.URL)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if res.Bytes != int64(len(body)) || !res.OK() {
		t.Errorf("Result = %+v", res)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("written file does not match response body")
	}
}

func TestFetchRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(imageHandler(jpegBody(8000), "text/html; charset=utf-8"))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	_, err := testFetcher(0).Fetch(context.Background(), "a", []string{server.URL}, dest)
	if !errors.Is(err, ErrAllFailed) || !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v, want ErrAllFailed wrapping ErrNotImage", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination created for a rejected response")
	}
}

func TestFetchRejectsSmallBody(t *testing.T) {
	server := httptest.NewServer(imageHandler(jpegBody(5000), "image/jpeg"))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	_, err := testFetcher(0).Fetch(context.Background(), "a", []string{server.URL}, dest)
	if !errors.Is(err, ErrTooSmall) {
		t.Fatalf("err = %v, want ErrTooSmall", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination created for a short body")
	}
}

func TestFetchNoURLs(t *testing.T) {
	res, err := testFetcher(0).Fetch(context.Background(), "a", nil, filepath.Join(t.TempDir(), "a.jpg"))
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if res.OK() {
		t.Error("OK() = true for failed fetch")
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var ua atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.UserAgent())
		imageHandler(jpegBody(6000), "image/png")(w, r)
	}))
	defer server.Close()

	if _, err := testFetcher(0).Fetch(context.Background(), "a", []string{server.URL}, filepath.Join(t.TempDir(), "a.jpg")); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := ua.Load(); got != "lessondeck-test" {
		t.Errorf("User-Agent = %v, want lessondeck-test", got)
	}
}

// ///////////////////////////////////////////////
// Skip and Retry
// ///////////////////////////////////////////////

func TestFetchSkipsExisting(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(dest, jpegBody(2000), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := testFetcher(0).Fetch(context.Background(), "a", []string{server.URL}, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.Skipped || res.Bytes != 2000 {
		t.Errorf("Result = %+v, want skipped with 2000 bytes", res)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func TestFetchReplacesTinyExisting(t *testing.T) {
	server := httptest.NewServer(imageHandler(jpegBody(6000), "image/jpeg"))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(dest, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := testFetcher(0).Fetch(context.Background(), "a", []string{server.URL}, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Skipped || res.Bytes != 6000 {
		t.Errorf("Result = %+v, want a fresh 6000-byte download", res)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		imageHandler(jpegBody(6000), "image/jpeg")(w, r)
	}))
	defer server.Close()

	res, err := testFetcher(2).Fetch(context.Background(), "a", []string{server.URL}, filepath.Join(t.TempDir(), "a.jpg"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (retries are per URL)", res.Attempts)
	}
}

func TestFetchCancelled(t *testing.T) {
	server := httptest.NewServer(imageHandler(jpegBody(6000), "image/jpeg"))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testFetcher(0).Fetch(ctx, "a", []string{server.URL}, filepath.Join(t.TempDir(), "a.jpg"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// ///////////////////////////////////////////////
// FetchAll
// ///////////////////////////////////////////////

func TestFetchAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good.jpg", imageHandler(jpegBody(7000), "image/jpeg"))
	mux.HandleFunc("/bad.jpg", http.NotFound)
	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	jobs := []Job{
		{Name: "one", URLs: []string{server.URL + "/good.jpg"}, Dest: filepath.Join(dir, "one.jpg")},
		{Name: "two", URLs: []string{server.URL + "/bad.jpg"}, Dest: filepath.Join(dir, "two.jpg")},
		{Name: "three", URLs: []string{server.URL + "/bad.jpg", server.URL + "/good.jpg"}, Dest: filepath.Join(dir, "three.jpg")},
	}
	results := testFetcher(0).FetchAll(context.Background(), jobs)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	want := []bool{true, false, true}
	for i, r := range results {
		if r.Name != jobs[i].Name {
			t.Errorf("results[%d].Name = %q, want %q", i, r.Name, jobs[i].Name)
		}
		if r.OK() != want[i] {
			t.Errorf("results[%d].OK() = %v, want %v (err %v)", i, r.OK(), want[i], r.Err)
		}
	}
}

// ///////////////////////////////////////////////
// Pauses
// ///////////////////////////////////////////////

// stampServer records when each request arrives. Paths ending in bad.jpg
// return 404.
func stampServer(t *testing.T) (*httptest.Server, func() []time.Time) {
	t.Helper()
	var mu sync.Mutex
	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		if strings.HasSuffix(r.URL.Path, "bad.jpg") {
			http.NotFound(w, r)
			return
		}
		imageHandler(jpegBody(6000), "image/jpeg")(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []time.Time {
		mu.Lock()
		defer mu.Unlock()
		return slices.Clone(stamps)
	}
}

func TestFetchPausesAfterFailedURL(t *testing.T) {
	server, stamps := stampServer(t)
	f := testFetcher(0)
	f.opts.RetryDelay = 150 * time.Millisecond
	f.opts.ImageDelay = 0

	dest := filepath.Join(t.TempDir(), "slide2.jpg")
	if _, err := f.Fetch(context.Background(), "slide2", []string{server.URL + "/bad.jpg", server.URL + "/good.jpg"}, dest); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got := stamps()
	if len(got) != 2 {
		t.Fatalf("requests = %d, want 2", len(got))
	}
	if gap := got[1].Sub(got[0]); gap < f.opts.RetryDelay {
		t.Errorf("gap after failed URL = %v, want >= %v", gap, f.opts.RetryDelay)
	}
}

func TestFetchAllPausesBetweenImages(t *testing.T) {
	server, stamps := stampServer(t)
	f := testFetcher(0)
	f.opts.RetryDelay = 0
	f.opts.ImageDelay = 150 * time.Millisecond

	dir := t.TempDir()
	jobs := []Job{
		{Name: "one", URLs: []string{server.URL + "/one.jpg"}, Dest: filepath.Join(dir, "one.jpg")},
		{Name: "two", URLs: []string{server.URL + "/two.jpg"}, Dest: filepath.Join(dir, "two.jpg")},
	}
	f.FetchAll(context.Background(), jobs)
	got := stamps()
	if len(got) != 2 {
		t.Fatalf("requests = %d, want 2", len(got))
	}
	if gap := got[1].Sub(got[0]); gap < f.opts.ImageDelay {
		t.Errorf("gap between images = %v, want >= %v", gap, f.opts.ImageDelay)
	}
}

// ///////////////////////////////////////////////
// IsImageType
// ///////////////////////////////////////////////

func TestIsImageType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"image/jpeg", true},
		{"image/webp", true},
		{"IMAGE/PNG", true},
		{"application/octet-stream; name=photo.jpeg", true},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsImageType(tt.ct); got != tt.want {
			t.Errorf("IsImageType(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}
