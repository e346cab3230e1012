package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tools.zach/dev/lessondeck/internal/artwork"
	"tools.zach/dev/lessondeck/internal/config"
	"tools.zach/dev/lessondeck/internal/content"
	"tools.zach/dev/lessondeck/internal/deck"
	"tools.zach/dev/lessondeck/internal/fetch"
	"tools.zach/dev/lessondeck/internal/fonts"
	"tools.zach/dev/lessondeck/internal/paths"
	"tools.zach/dev/lessondeck/internal/watch"
)

// settleDelay is how long a watched file must stay quiet before a rebuild.
const settleDelay = 300 * time.Millisecond

// ///////////////////////////////////////////////
// Images
// ///////////////////////////////////////////////

// images produces the slide images according to images.source. Download
// failures are never fatal; auto mode paints a scene for every photo that
// could not be fetched.
func (a *app) images(ctx context.Context, d *content.Deck) error {
	switch a.cfg.Images.Source {
	case config.SourceDownload:
		_, err := a.download(ctx, d)
		return err
	case config.SourceAuto:
		results, err := a.download(ctx, d)
		if err != nil {
			return err
		}
		var failed []content.ImageSpec
		for _, r := range results {
			if r.OK() {
				continue
			}
			if spec, ok := d.Image(r.Name); ok {
				failed = append(failed, spec)
			}
		}
		if len(failed) == 0 {
			return nil
		}
		fmt.Fprintln(a.stdout)
		_, err = a.generate(ctx, failed, true)
		return err
	default:
		_, err := a.generate(ctx, d.Images, false)
		return err
	}
}

// generate paints the procedural artwork for specs. Existing files are kept
// unless force or images.overwrite is set. Every scene name is checked
// before the first file is written.
func (a *app) generate(ctx context.Context, specs []content.ImageSpec, force bool) ([]string, error) {
	for _, spec := range specs {
		if a.cfg.ImageSelected(spec.Name) && !artwork.Known(spec.Scene) {
			return nil, fmt.Errorf("image %s: unknown scene %q (known: %s)", spec.Name, spec.Scene, strings.Join(artwork.Scenes(), ", "))
		}
	}

	fmt.Fprintln(a.stdout, "Generating custom artwork for Bible class presentation...")
	fmt.Fprintln(a.stdout, "Color palette: Deep Purple, Burgundy, Gold, Deep Teal")
	fmt.Fprintln(a.stdout)

	opts := artwork.Options{
		Width:  a.cfg.Images.Width,
		Height: a.cfg.Images.Height,
		Seed:   a.cfg.Images.Seed,
	}
	var written, present []string
	for _, spec := range specs {
		if !a.cfg.ImageSelected(spec.Name) {
			a.log.Debug("image filtered out", "image", spec.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		path := a.layout.Image(spec.Name)
		file := paths.ImageFile(spec.Name)
		if !force && !a.cfg.Images.Overwrite && artwork.Exists(path) {
			fmt.Fprintf(a.stdout, "  [SKIP] %s already exists\n", file)
			present = append(present, path)
			continue
		}

		img, err := artwork.Render(spec.Scene, opts)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", spec.Name, err)
		}
		if err := artwork.WriteJPEG(path, img, a.cfg.Images.Quality); err != nil {
			return written, fmt.Errorf("write %s: %w", file, err)
		}
		a.log.Info("generated image", "image", spec.Name, "scene", spec.Scene, "path", path)
		fmt.Fprintf(a.stdout, "  Generated: %s\n", file)
		written = append(written, path)
		present = append(present, path)
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "All images generated successfully!")
	fmt.Fprintf(a.stdout, "Output directory: %s\n", a.layout.ImagesPath())
	for _, path := range present {
		if fi, err := os.Stat(path); err == nil {
			fmt.Fprintf(a.stdout, "  %s: %s bytes\n", filepath.Base(path), commas(fi.Size()))
		}
	}
	return written, nil
}

// ///////////////////////////////////////////////
// Download
// ///////////////////////////////////////////////

// download fetches every selected image from its photo URL list. Individual
// failures are reported in the summary and returned in the results; only
// cancellation is an error.
func (a *app) download(ctx context.Context, d *content.Deck) ([]fetch.Result, error) {
	dl := a.cfg.Download
	f := fetch.New(fetch.NewClient(dl.Timeout(), dl.RetryMax, a.log), fetch.Options{
		UserAgent:         dl.UserAgent,
		MinBytes:          dl.MinBytes,
		SkipExistingBytes: dl.SkipExistingBytes,
		RetryDelay:        dl.RetryDelay(),
		ImageDelay:        dl.ImageDelay(),
		Logger:            a.log,
	})

	var jobs []fetch.Job
	for _, spec := range d.Images {
		if !a.cfg.ImageSelected(spec.Name) {
			continue
		}
		jobs = append(jobs, fetch.Job{
			Name: spec.Name,
			URLs: spec.Photos,
			Dest: a.layout.Image(spec.Name),
		})
	}

	fmt.Fprintf(a.stdout, "Downloading %d slide photos to %s\n\n", len(jobs), a.layout.ImagesPath())
	results := f.FetchAll(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return results, err
	}

	ok := 0
	for _, r := range results {
		name := paths.ImageFile(r.Name)
		switch {
		case r.Skipped:
			fmt.Fprintf(a.stdout, "  [SKIP] %s already exists (%s bytes)\n", name, commas(r.Bytes))
		case r.OK():
			fmt.Fprintf(a.stdout, "  [OK] %s: %s bytes\n", name, commas(r.Bytes))
		default:
			fmt.Fprintf(a.stdout, "  [FAIL] Could not download %s\n", name)
		}
		if r.OK() {
			ok++
		}
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "--- Summary ---")
	fmt.Fprintf(a.stdout, "Downloaded: %d/%d\n", ok, len(results))
	for _, r := range results {
		status := "OK"
		if !r.OK() {
			status = "FAILED"
		}
		fmt.Fprintf(a.stdout, "  %s: %s\n", r.Name, status)
	}
	return results, nil
}

// ///////////////////////////////////////////////
// Build
// ///////////////////////////////////////////////

// build assembles and saves the deck, then renders previews when asked.
func (a *app) build(ctx context.Context, d *content.Deck, preview bool) error {
	font, err := a.badgeFont(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "Building presentation...")
	res, err := deck.Build(ctx, d, deck.Options{
		ImagesDir: a.layout.ImagesPath(),
		BadgeFont: font.Data,
		Logger:    a.log,
	})
	if err != nil {
		return fmt.Errorf("build deck: %w", err)
	}
	for _, s := range res.Slides {
		fmt.Fprintf(a.stdout, "  Created: Slide %d - %s\n", s.Index, s.Name)
	}

	path := a.layout.DeckPath()
	size, err := deck.Save(res, path)
	if err != nil {
		return err
	}
	a.log.Info("saved presentation", "path", path, "bytes", size, "missing_images", len(res.Missing))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "Presentation saved: %s\n", path)
	fmt.Fprintf(a.stdout, "File size: %s bytes (%.1f KB)\n", commas(size), float64(size)/1024)
	fmt.Fprintf(a.stdout, "Slides: %d\n", len(res.Slides))
	fmt.Fprintln(a.stdout, "Format: .pptx (16:9 widescreen)")

	if !preview {
		return nil
	}
	fontDirs := []string{filepath.Join(a.layout.Root, paths.FontsDir), a.layout.FontCache()}
	written, err := deck.Preview(ctx, res, a.layout.PreviewsPath(), a.cfg.Preview.Width, fontDirs...)
	if err != nil {
		return fmt.Errorf("render previews: %w", err)
	}
	fmt.Fprintf(a.stdout, "Previews: %d written to %s\n", len(written), a.layout.PreviewsPath())
	return nil
}

// badgeFont resolves the numbered-badge face: fonts.badge, then the Google
// Fonts fallback, then the builtin face.
func (a *app) badgeFont(ctx context.Context) (fonts.Font, error) {
	r := &fonts.Resolver{
		CacheDir:  a.layout.FontCache(),
		Offline:   a.cfg.Fonts.Offline,
		UserAgent: a.cfg.Download.UserAgent,
		Logger:    a.log,
	}
	if !a.cfg.Fonts.Offline {
		r.Client = fetch.NewClient(a.cfg.Download.Timeout(), a.cfg.Download.RetryMax, a.log)
	}
	f, err := r.Resolve(ctx, a.cfg.Fonts.Badge, a.cfg.Fonts.BadgeFallback)
	if err != nil {
		return fonts.Font{}, err
	}
	a.log.Debug("badge font", "source", f.Source, "name", f.Name)
	return f, nil
}

// ///////////////////////////////////////////////
// Watch
// ///////////////////////////////////////////////

// watch builds once, then rebuilds whenever the config or the content file
// changes until ctx is cancelled. A failed rebuild is logged and the previous
// deck is left in place.
func (a *app) watch(ctx context.Context, d *content.Deck) error {
	if err := a.build(ctx, d, a.cfg.Preview.Enabled); err != nil {
		return err
	}

	files := []string{a.cfgPath}
	if a.cfg.Content.File != "" {
		files = append(files, a.cfg.Content.File)
	}
	w, err := watch.New(files, watch.Options{Logger: a.log})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	fmt.Fprintf(a.stdout, "\nWatching %d file(s) for changes (Ctrl+C to stop)\n", len(files))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Events():
		}
		if !w.Settle(settleDelay, ctx.Done()) {
			return nil
		}

		a.log.Info("change detected, rebuilding")
		if err := a.reload(); err != nil {
			a.log.Error("reload failed", "error", err)
			continue
		}
		d, err := content.Load(a.cfg.Content.File)
		if err != nil {
			a.log.Error("reload content failed", "error", err)
			continue
		}
		fmt.Fprintln(a.stdout)
		if err := a.build(ctx, d, a.cfg.Preview.Enabled); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			a.log.Error("rebuild failed", "error", err)
		}
	}
}

// reload re-reads the config file, keeping the -out override.
func (a *app) reload() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.outDir != "" {
		cfg.Output.Dir = a.outDir
	}
	a.cfg = cfg
	a.layout = cfg.Layout()
	return nil
}

// ///////////////////////////////////////////////
// Inspect
// ///////////////////////////////////////////////

// inspect summarises a saved deck, by default the configured output.
func (a *app) inspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	path := a.layout.DeckPath()
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	sum, err := deck.Inspect(path)
	if err != nil {
		return err
	}
	sum.Print(a.stdout)
	return nil
}

// ///////////////////////////////////////////////
// Formatting
// ///////////////////////////////////////////////

// commas formats n with thousands separators, e.g. 1234567 -> "1,234,567".
func commas(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
