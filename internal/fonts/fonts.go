// Package fonts resolves the typeface used to draw the numbered step badges.
//
// Resolution falls through three sources:
//  1. A local TTF/OTF/WOFF file named in config
//  2. A Google Fonts spec ("google:FAMILY:WEIGHT"), cached on disk after the
//     first download
//  3. The Go Bold face compiled into the binary
//
// The chain never leaves the caller without a font. Failures along the way
// are logged and the next source is tried.
package fonts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	sfnt "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"tools.zach/dev/lessondeck/internal/atomicfile"
)

// Source records where a resolved font came from.
type Source string

const (
	SourceFile    Source = "file"
	SourceCache   Source = "cache"
	SourceGoogle  Source = "google"
	SourceBuiltin Source = "builtin"
)

// DefaultCSSURL is the Google Fonts CSS2 endpoint.
const DefaultCSSURL = "https://fonts.googleapis.com/css2"

// requiredGlyphs must all be present for a face to be usable on badges.
const requiredGlyphs = "0123456789"

// fontURLRe extracts the font file URL from the CSS response.
// Matches: url(https://fonts.gstatic.com/s/inter/v18/xxx.woff2)
var fontURLRe = regexp.MustCompile(`url\((https?://[^)\s]+)\)`)

// Font is a resolved face in SFNT form.
type Font struct {
	Data   []byte
	Source Source
	// Name is the file path, the Google spec, or "Go Bold".
	Name string
}

// Resolver walks the fallback chain.
type Resolver struct {
	// Client is used for Google Fonts requests. Nil disables downloads.
	Client *retryablehttp.Client
	// CacheDir holds converted downloads.
	CacheDir string
	// Offline skips the network even when a spec is configured.
	Offline   bool
	UserAgent string
	// CSSURL overrides DefaultCSSURL.
	CSSURL string
	Logger *slog.Logger
}

// Resolve returns the first usable font from local, then fallback, then the
// builtin face. The only error is ctx's.
func (r *Resolver) Resolve(ctx context.Context, local, fallback string) (Font, error) {
	log := r.logger()

	if local != "" {
		data, err := LoadFile(local)
		if err == nil {
			return Font{Data: data, Source: SourceFile, Name: local}, nil
		}
		log.Warn("badge font unusable, trying fallback", "path", local, "error", err)
	}

	if fallback != "" {
		data, src, err := r.google(ctx, fallback)
		if err == nil {
			return Font{Data: data, Source: src, Name: fallback}, nil
		}
		if ctx.Err() != nil {
			return Font{}, ctx.Err()
		}
		log.Warn("badge font fallback failed, using builtin", "spec", fallback, "error", err)
	}

	return Builtin(), nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Builtin returns the Go Bold face.
func Builtin() Font {
	return Font{Data: gobold.TTF, Source: SourceBuiltin, Name: "Go Bold"}
}

// LoadFile reads and validates a local font file, converting WOFF/WOFF2 to
// SFNT.
func LoadFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return normalize(raw)
}

// normalize converts any supported container to SFNT and checks that the
// face covers the badge digits.
func normalize(raw []byte) ([]byte, error) {
	data, err := sfnt.ToSFNT(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to SFNT: %w", err)
	}
	parsed, err := sfnt.ParseSFNT(data, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	for _, r := range requiredGlyphs {
		if parsed.GlyphIndex(r) == 0 {
			return nil, fmt.Errorf("font has no glyph for %q", r)
		}
	}
	return data, nil
}

// ///////////////////////////////////////////////
// Google Fonts
// ///////////////////////////////////////////////

// ParseGoogleSpec parses a "google:Family:Weight" spec into its parts.
// Returns family, weight, and whether the spec is valid.
func ParseGoogleSpec(spec string) (family, weight string, ok bool) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 || parts[0] != "google" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// CacheFile returns the cache path for a family and weight.
func (r *Resolver) CacheFile(family, weight string) string {
	name := strings.ReplaceAll(family, " ", "_")
	return filepath.Join(r.CacheDir, fmt.Sprintf("%s-%s.ttf", name, weight))
}

func (r *Resolver) google(ctx context.Context, spec string) ([]byte, Source, error) {
	family, weight, ok := ParseGoogleSpec(spec)
	if !ok {
		return nil, "", fmt.Errorf("invalid google font spec %q: expected google:FAMILY:WEIGHT", spec)
	}

	cacheFile := r.CacheFile(family, weight)
	if data, err := LoadFile(cacheFile); err == nil {
		return data, SourceCache, nil
	}

	if r.Offline || r.Client == nil {
		return nil, "", fmt.Errorf("%s is not cached and downloads are disabled", spec)
	}

	data, err := r.download(ctx, family, weight)
	if err != nil {
		return nil, "", err
	}

	if r.CacheDir != "" {
		if err := atomicfile.Write(cacheFile, data, 0o644); err != nil {
			// Non-fatal: the font is still usable this run.
			r.logger().Warn("failed to cache font", "path", cacheFile, "error", err)
		}
	}
	return data, SourceGoogle, nil
}

// download fetches the CSS for a family, then the first font file it
// references, and converts it to SFNT.
func (r *Resolver) download(ctx context.Context, family, weight string) ([]byte, error) {
	base := r.CSSURL
	if base == "" {
		base = DefaultCSSURL
	}
	cssURL := fmt.Sprintf("%s?family=%s:wght@%s", base, url.QueryEscape(family), weight)

	// Google returns WOFF2 URLs for modern User-Agents; ToSFNT handles them.
	css, err := r.get(ctx, cssURL, 1<<20)
	if err != nil {
		return nil, fmt.Errorf("fetching CSS from Google Fonts: %w", err)
	}

	m := fontURLRe.FindSubmatch(css)
	if m == nil {
		return nil, fmt.Errorf("no font URL found in Google Fonts CSS response for %s wght@%s", family, weight)
	}

	raw, err := r.get(ctx, string(m[1]), 10<<20)
	if err != nil {
		return nil, fmt.Errorf("downloading font file: %w", err)
	}
	return normalize(raw)
}

func (r *Resolver) get(ctx context.Context, u string, limit int64) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	ua := r.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := r.Client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", u, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", u, limit)
	}
	return body, nil
}

// ///////////////////////////////////////////////
// Faces
// ///////////////////////////////////////////////

// Face parses data and returns a face at the given size in points (72 DPI,
// so points equal pixels).
func Face(data []byte, points float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    points,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}
