// Package fetch downloads slide photos from a list of fallback URLs.
//
// Each image is tried against its URLs in order until one returns an image
// body of a plausible size. Failures are never fatal to a run: the caller
// gets a [Result] per image and decides whether to fall back to generated
// artwork. Files are written atomically so an interrupted download never
// leaves a truncated JPEG behind.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"tools.zach/dev/lessondeck/internal/atomicfile"
)

// maxBodyBytes caps a single photo download.
const maxBodyBytes = 50 << 20

var (
	// ErrAllFailed is returned when every URL for an image failed.
	ErrAllFailed = errors.New("all sources failed")
	// ErrNotImage is returned for a response whose Content-Type is not an image.
	ErrNotImage = errors.New("response is not an image")
	// ErrTooSmall is returned for a body at or under the minimum size.
	ErrTooSmall = errors.New("response too small")
)

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// NewClient returns a retrying HTTP client with the given per-request timeout
// and retry budget. When logger is nil the client logs nothing.
func NewClient(timeout time.Duration, retryMax int, logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient = cleanhttp.DefaultPooledClient()
	c.HTTPClient.Timeout = timeout
	c.RetryMax = retryMax
	c.RetryWaitMin = 250 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	// Hand back the final response so status codes reach the caller.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = nil
	if logger != nil {
		c.Logger = logger
	}
	return c
}

// ///////////////////////////////////////////////
// Fetcher
// ///////////////////////////////////////////////

// Options tunes a [Fetcher].
type Options struct {
	// UserAgent is sent on every request.
	UserAgent string
	// MinBytes rejects bodies of this size or smaller.
	MinBytes int64
	// SkipExistingBytes skips images whose file is already larger than this.
	// Negative disables skipping.
	SkipExistingBytes int64
	// RetryDelay is the pause after a failed URL.
	RetryDelay time.Duration
	// ImageDelay is the pause between images in [Fetcher.FetchAll].
	ImageDelay time.Duration
	Logger *slog.Logger
}

// Fetcher downloads images with fallback.
type Fetcher struct {
	client *retryablehttp.Client
	opts   Options
	log    *slog.Logger
}

// New creates a Fetcher using client for all requests.
func New(client *retryablehttp.Client, opts Options) *Fetcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{client: client, opts: opts, log: log}
}

// Job names one image and where to put it.
type Job struct {
	Name string
	URLs []string
	Dest string
}

// Result reports what happened to one image.
type Result struct {
	Name string
	Path string
	// URL is the source that succeeded; empty when skipped or failed.
	URL string
	// Bytes is the size of the file on disk.
	Bytes    int64
	Skipped  bool
	Attempts int
	Err      error
}

// OK reports whether the image is present on disk after the fetch.
func (r Result) OK() bool { return r.Err == nil }

// Fetch downloads one image, trying urls in order.
func (f *Fetcher) Fetch(ctx context.Context, name string, urls []string, dest string) (Result, error) {
	res := Result{Name: name, Path: dest}

	if f.opts.SkipExistingBytes >= 0 {
		if fi, err := os.Stat(dest); err == nil && fi.Size() > f.opts.SkipExistingBytes {
			res.Skipped = true
			res.Bytes = fi.Size()
			f.log.Info("already present", "image", name, "bytes", fi.Size())
			return res, nil
		}
	}

	var errs []error
	for _, u := range urls {
		res.Attempts++
		n, err := f.try(ctx, u, dest)
		if err == nil {
			res.URL = u
			res.Bytes = n
			f.log.Info("downloaded", "image", name, "url", u, "bytes", n)
			return res, nil
		}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res, res.Err
		}
		f.log.Warn("download attempt failed", "image", name, "url", u, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", u, err))
		if err := sleep(ctx, f.opts.RetryDelay); err != nil {
			res.Err = err
			return res, err
		}
	}

	res.Err = fmt.Errorf("%w for %s: %w", ErrAllFailed, name, errors.Join(errs...))
	return res, res.Err
}

// FetchAll downloads every job in order, pausing between images. It stops
// early only when ctx is cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, 0, len(jobs))
	for i, j := range jobs {
		if i > 0 {
			if err := sleep(ctx, f.opts.ImageDelay); err != nil {
				break
			}
		}
		r, _ := f.Fetch(ctx, j.Name, j.URLs, j.Dest)
		results = append(results, r)
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// try performs a single GET and writes the body to dest on success.
func (f *Fetcher) try(ctx context.Context, url, dest string) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !IsImageType(ct) {
		return 0, fmt.Errorf("%w: %q", ErrNotImage, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return 0, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > maxBodyBytes {
		return 0, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	if int64(len(body)) <= f.opts.MinBytes {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(body))
	}

	if err := atomicfile.Write(dest, body, 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}
	return int64(len(body)), nil
}

// IsImageType reports whether a Content-Type header names an image.
func IsImageType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "image") || strings.Contains(ct, "jpeg") || strings.Contains(ct, "png")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
