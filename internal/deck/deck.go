// Package deck builds the presentation from a content.Deck.
//
// Geometry in the content is authored on a 13.333 x 7.5 inch grid, which is
// the 16:9 widescreen slide, so coordinates and font sizes carry over as-is.
// A content file authored on another grid is scaled to the slide width.
// Images referenced by panel slides are read from disk; a missing image is
// logged and skipped so the deck still builds.
package deck

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"

	ppt "github.com/VantageDataChat/GoPPT"
	"tools.zach/dev/lessondeck/internal/content"
	"tools.zach/dev/lessondeck/internal/palette"
	"tools.zach/dev/lessondeck/internal/paths"
)

// Panel slide chrome, in design inches.
const (
	imageWidth   = 6.5
	panelX       = 5.8
	panelWidth   = 7.533
	stripeX      = 6.0
	stripePoints = 4
	textX        = 6.5
	textWidth    = 6.0
	labelHeight  = 0.5
	labelPoints  = 14
	dividerWidth = 3.0
	dividerPts   = 2
)

// Options configures a build.
type Options struct {
	// ImagesDir holds the slide images named by the deck.
	ImagesDir string
	// BadgeFont is an SFNT font for the step badges. Nil uses Go Bold.
	BadgeFont []byte
	Logger    *slog.Logger
}

// SlideInfo describes one built slide.
type SlideInfo struct {
	// Index is 1-based.
	Index    int
	Name     string
	Kind     string
	Shapes   int
	Pictures int
	Texts    []string
}

// Result is a built presentation.
type Result struct {
	Presentation *ppt.Presentation
	Slides       []SlideInfo
	// Missing lists image paths that were not found.
	Missing []string
}

// Build lays out every slide of d. It fails only on invalid colours, an
// unusable badge font, or ctx cancellation.
func Build(ctx context.Context, d *content.Deck, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if d.Design.Width <= 0 {
		return nil, fmt.Errorf("invalid design width %v", d.Design.Width)
	}

	badges, err := newBadger(opts.BadgeFont)
	if err != nil {
		return nil, err
	}
	defer badges.Close()

	p := ppt.New()
	layout := p.GetLayout()
	layout.SetLayout(ppt.LayoutScreen16x9)
	props := p.GetDocumentProperties()
	props.Title = d.Title
	props.Creator = d.Author
	props.Subject = d.Subject

	res := &Result{Presentation: p}
	b := &builder{
		deck:   d,
		opts:   opts,
		badges: badges,
		scale:  gridScale(layout.CX, d.Design.Width),
	}

	for i, s := range d.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slide := p.GetActiveSlide()
		if i > 0 {
			slide = p.CreateSlide()
		}
		info := SlideInfo{Index: i + 1, Name: s.Name, Kind: s.Kind}
		c := &canvas{slide: slide, scale: b.scale, w: layout.CX, h: layout.CY, log: log, info: &info, res: res}
		if err := b.slide(c, s); err != nil {
			return nil, fmt.Errorf("slide %d (%s): %w", i+1, s.Name, err)
		}
		res.Slides = append(res.Slides, info)
		log.Info("created slide", "slide", info.Index, "name", info.Name, "shapes", info.Shapes)
	}
	return res, nil
}

// gridScale is the factor from design inches to slide inches. Grids within
// a thousandth of an inch of the slide width map 1:1.
func gridScale(slideEMU int64, designWidth float64) float64 {
	slideIn := float64(slideEMU) / EMUPerInch
	if math.Abs(slideIn-designWidth) < 0.001 {
		return 1
	}
	return slideIn / designWidth
}

type builder struct {
	deck   *content.Deck
	opts   Options
	badges *badger
	scale  float64
}

func (b *builder) slide(c *canvas, s content.Slide) error {
	switch s.Kind {
	case content.KindTitle, content.KindClosing:
		if err := b.framed(c, s); err != nil {
			return err
		}
	case content.KindPanel:
		if err := b.panel(c, s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}

	for _, box := range s.Boxes {
		if err := c.text(box); err != nil {
			return err
		}
	}
	if s.Steps != nil {
		return b.steps(c, *s.Steps)
	}
	return nil
}

// framed is the title and closing chrome: a solid background with accent
// bars along the top and bottom edges.
func (b *builder) framed(c *canvas, s content.Slide) error {
	if err := c.background(s.Background); err != nil {
		return err
	}
	if s.Bar <= 0 {
		return nil
	}
	w, h := b.deck.Design.Width, b.deck.Design.Height
	if err := c.rect(0, 0, w, s.Bar, s.BarColor); err != nil {
		return err
	}
	return c.rect(0, h-s.Bar, w, s.Bar, s.BarColor)
}

// panel is the content slide chrome: image on the left, a coloured text
// panel on the right edged by a stripe, the section label, the heading and
// a divider rule.
func (b *builder) panel(c *canvas, s content.Slide) error {
	h := b.deck.Design.Height
	if err := c.background(s.Background); err != nil {
		return err
	}

	path := filepath.Join(b.opts.ImagesDir, paths.ImageFile(s.Image))
	if _, err := c.image(path, 0, 0, imageWidth, h); err != nil {
		return fmt.Errorf("image %s: %w", s.Image, err)
	}

	if err := c.rect(panelX, 0, panelWidth, h, s.Panel); err != nil {
		return err
	}
	if err := c.rect(stripeX, 0, stripePoints/72.0, h, s.Stripe); err != nil {
		return err
	}

	if s.Label != "" {
		label := content.Box{
			X: textX, Y: s.LabelTop, W: textWidth, H: labelHeight,
			Lines: []content.Line{{Text: s.Label, Size: labelPoints, Color: s.Stripe, Bold: true}},
		}
		if err := c.text(label); err != nil {
			return err
		}
	}

	heading := content.Box{X: textX, Y: s.HeadingTop, W: textWidth, H: s.HeadingHeight, Lines: s.Heading}
	if err := c.text(heading); err != nil {
		return err
	}

	if s.Divider > 0 {
		return c.rect(textX, s.Divider, dividerWidth, dividerPts/72.0, s.Stripe)
	}
	return nil
}

// Steps ladder geometry, in design inches.
const (
	stepBadgeX    = 6.5
	stepTextX     = 7.2
	stepTextW     = 5.0
	stepTextH     = 0.5
	stepArrowX    = 6.795
	stepArrowW    = 0.5
	stepArrowH    = 0.3
	stepTextNudge = 0.05
)

// steps draws the numbered ladder. Each rung shifts right by Indent and
// its badge colour moves from From to To.
func (b *builder) steps(c *canvas, st content.Steps) error {
	from, err := palette.Resolve(st.From)
	if err != nil {
		return err
	}
	to, err := palette.Resolve(st.To)
	if err != nil {
		return err
	}

	n := len(st.Items)
	for i, item := range st.Items {
		y := st.Top + float64(i)*st.Pitch
		indent := float64(i) * st.Indent

		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		png, err := b.badges.render(strconv.Itoa(i+1), palette.Ramp(from, to, t), palette.NearBlack)
		if err != nil {
			return err
		}
		c.picture(png, "image/png", stepBadgeX+indent, y, badgeSize, badgeSize)

		text := content.Box{
			X: stepTextX + indent, Y: y - stepTextNudge, W: stepTextW, H: stepTextH,
			Lines: []content.Line{
				{Text: item.Title, Size: 22, Color: "warm_white", Font: "Georgia", Bold: true},
				{Text: item.Subtitle, Size: 16, Color: "cream", Italic: true},
			},
		}
		if err := c.text(text); err != nil {
			return err
		}

		if i < n-1 {
			arrow := content.Box{
				X: stepArrowX + indent, Y: y + badgeSize, W: stepArrowW, H: stepArrowH, Align: "center",
				Lines: []content.Line{{Text: "▼", Size: 12, Color: "gold"}},
			}
			if err := c.text(arrow); err != nil {
				return err
			}
		}
	}
	return nil
}
