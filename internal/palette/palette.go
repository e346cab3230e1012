// Package palette defines the jewel-tone colour set shared by the slide
// builder and the artwork generator, plus the small amount of colour maths
// both need.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ///////////////////////////////////////////////
// Named Colours
// ///////////////////////////////////////////////

var (
	DeepPurple   = rgb(48, 15, 72)
	RichPurple   = rgb(75, 25, 110)
	SoftPurple   = rgb(100, 50, 140)
	Burgundy     = rgb(128, 0, 32)
	DarkBurgundy = rgb(80, 10, 25)
	Gold         = rgb(218, 165, 32)
	LightGold    = rgb(255, 215, 100)
	PaleGold     = rgb(255, 235, 180)
	SoftGold     = rgb(200, 150, 45)
	DeepTeal     = rgb(0, 80, 80)
	DarkTeal     = rgb(0, 50, 55)
	WarmWhite    = rgb(255, 248, 240)
	Cream        = rgb(255, 245, 230)
	NearBlack    = rgb(15, 10, 20)
	DarkBG       = rgb(20, 12, 30)
	Midnight     = rgb(10, 5, 25)
	RoyalBlue    = rgb(30, 30, 90)
	White        = rgb(255, 255, 255)
	LightGray    = rgb(204, 204, 204)
	MidGray      = rgb(153, 153, 153)
	Black        = rgb(0, 0, 0)
)

// names maps the snake_case names used in deck content to colours.
var names = map[string]colorful.Color{
	"deep_purple":   DeepPurple,
	"rich_purple":   RichPurple,
	"soft_purple":   SoftPurple,
	"burgundy":      Burgundy,
	"dark_burgundy": DarkBurgundy,
	"gold":          Gold,
	"light_gold":    LightGold,
	"pale_gold":     PaleGold,
	"soft_gold":     SoftGold,
	"deep_teal":     DeepTeal,
	"dark_teal":     DarkTeal,
	"warm_white":    WarmWhite,
	"cream":         Cream,
	"near_black":    NearBlack,
	"dark_bg":       DarkBG,
	"midnight":      Midnight,
	"royal_blue":    RoyalBlue,
	"white":         White,
	"light_gray":    LightGray,
	"mid_gray":      MidGray,
	"black":         Black,
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Names returns every palette name, sorted.
func Names() []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Named looks up a palette colour by its snake_case name.
func Named(name string) (colorful.Color, bool) {
	c, ok := names[strings.ToLower(name)]
	return c, ok
}

// ///////////////////////////////////////////////
// Parsing
// ///////////////////////////////////////////////

// Parse parses "#RRGGBB" or "RRGGBB".
func Parse(hex string) (colorful.Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return colorful.Color{}, fmt.Errorf("invalid hex color %q: must be 6 hex digits", hex)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return c, nil
}

// Resolve accepts either a palette name or a hex string.
func Resolve(s string) (colorful.Color, error) {
	if c, ok := Named(s); ok {
		return c, nil
	}
	c, err := Parse(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("unknown color %q: not a palette name or hex value", s)
	}
	return c, nil
}

// ///////////////////////////////////////////////
// Maths
// ///////////////////////////////////////////////

// Lerp interpolates linearly in sRGB between a and b. t is clamped to [0,1].
func Lerp(a, b colorful.Color, t float64) colorful.Color {
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	return a.BlendRgb(b, t)
}

// Ramp steps from a to b like Lerp but truncates each channel to a whole
// 0-255 value, so badge ramps land on the same integers as int(218 - 90t).
func Ramp(a, b colorful.Color, t float64) colorful.Color {
	t = max(0, min(1, t))
	ch := func(x, y float64) float64 {
		x, y = math.Round(x*255), math.Round(y*255)
		return math.Trunc(x+t*(y-x)) / 255
	}
	return colorful.Color{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B)}
}

// Scale multiplies every channel by k, clamped. Used for additive light
// layers that need a dimmed copy of a colour.
func Scale(c colorful.Color, k float64) colorful.Color {
	return colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}.Clamped()
}

// NRGBA converts c to an opaque color.NRGBA.
func NRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// WithAlpha converts c to a color.NRGBA with the given alpha.
func WithAlpha(c colorful.Color, a uint8) color.NRGBA {
	n := NRGBA(c)
	n.A = a
	return n
}

// ARGB returns the "AARRGGBB" form used by the presentation writer.
func ARGB(c colorful.Color) string {
	r, g, b := c.Clamped().RGB255()
	return fmt.Sprintf("FF%02X%02X%02X", r, g, b)
}
