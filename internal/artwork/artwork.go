// Package artwork renders the decorative slide backgrounds procedurally.
//
// Every scene is painted on a 1920x1080 design canvas with a seeded random
// source, so the same scene and seed always produce the same pixels. Callers
// asking for a different output size get a Lanczos resample of the design
// canvas.
package artwork

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math/rand/v2"
	"os"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"tools.zach/dev/lessondeck/internal/atomicfile"
	"tools.zach/dev/lessondeck/internal/palette"
)

// Design canvas size. Scene coordinates are expressed in these pixels.
const (
	DesignWidth  = 1920
	DesignHeight = 1080
)

// ErrUnknownScene is returned by [Render] for a scene name with no painter.
var ErrUnknownScene = errors.New("unknown scene")

// Options controls a render. Zero Width or Height means the design size.
type Options struct {
	Width  int
	Height int
	// Seed is mixed into each scene's own seed. Zero reproduces the
	// reference artwork.
	Seed int64
}

type scene struct {
	seed  uint64
	paint func(c *canvas)
}

var scenes = map[string]scene{
	"cross-mindset": {seed: 1, paint: paintCrossMindset},
	"incarnation":   {seed: 2, paint: paintIncarnation},
	"emptying":      {seed: 42, paint: paintEmptying},
	"humble":        {seed: 4, paint: paintHumble},
	"cross-death":   {seed: 5, paint: paintCrossDeath},
	"descending":    {seed: 100, paint: paintDescending},
	"serving-hands": {seed: 55, paint: paintServingHands},
	"contemplating": {seed: 8, paint: paintContemplating},
}

// Scenes returns the registered scene names, sorted.
func Scenes() []string {
	out := make([]string, 0, len(scenes))
	for name := range scenes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Known reports whether name has a painter.
func Known(name string) bool {
	_, ok := scenes[name]
	return ok
}

// Render paints the named scene.
func Render(name string, opts Options) (image.Image, error) {
	sc, ok := scenes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid size %dx%d", opts.Width, opts.Height)
	}

	c := newCanvas(sc.seed, uint64(opts.Seed))
	sc.paint(c)

	w, h := opts.Width, opts.Height
	if w == 0 {
		w = DesignWidth
	}
	if h == 0 {
		h = DesignHeight
	}
	if w == DesignWidth && h == DesignHeight {
		return c.img, nil
	}
	return imaging.Resize(c.img, w, h, imaging.Lanczos), nil
}

// EncodeJPEG writes img as a JPEG at the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

// WriteJPEG encodes img to path atomically.
func WriteJPEG(path string, img image.Image, quality int) error {
	return atomicfile.WriteFunc(path, 0o644, func(w io.Writer) error {
		return EncodeJPEG(w, img, quality)
	})
}

// Exists reports whether path holds a non-empty file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir() && fi.Size() > 0
}

// ///////////////////////////////////////////////
// Canvas
// ///////////////////////////////////////////////

// canvas pairs a gg context with direct pixel access and the scene's random
// source. Vector shapes go through dc; per-pixel blends write img.Pix.
type canvas struct {
	dc   *gg.Context
	img  *image.RGBA
	rng  *rand.Rand
	salt uint64
	w    float64
	h    float64
}

func newCanvas(seed, salt uint64) *canvas {
	dc := gg.NewContext(DesignWidth, DesignHeight)
	img := dc.Image().(*image.RGBA)
	draw.Draw(img, img.Bounds(), image.NewUniform(palette.NRGBA(palette.NearBlack)), image.Point{}, draw.Src)
	return &canvas{
		dc:   dc,
		img:  img,
		rng:  newRand(seed + salt),
		salt: salt,
		w:    DesignWidth,
		h:    DesignHeight,
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// reseed restarts the random source part way through a scene so later
// layers do not shift when earlier ones change.
func (c *canvas) reseed(seed uint64) {
	c.rng = newRand(seed + c.salt)
}

// randint returns an integer in [lo, hi].
func (c *canvas) randint(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.IntN(hi-lo+1)
}

// uniform returns a float in [lo, hi).
func (c *canvas) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}

func (c *canvas) gauss(mean, sd float64) float64 {
	return mean + sd*c.rng.NormFloat64()
}
