// Package content holds the deck model: the literal text, colours and
// geometry of every slide plus the list of slide images. The stock deck is
// embedded; a TOML file with the same shape can replace it.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/lessondeck/internal/palette"
)

//go:embed deck.toml
var defaultDeck []byte

// DefaultTOML returns the embedded deck source.
func DefaultTOML() []byte { return defaultDeck }

// SlideCount is the number of slides every deck must contain.
const SlideCount = 10

// Slide kinds.
const (
	KindTitle   = "title"
	KindPanel   = "panel"
	KindClosing = "closing"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Deck is the full presentation content.
type Deck struct {
	Title   string      `toml:"title"`
	Author  string      `toml:"author"`
	Subject string      `toml:"subject"`
	Design  Design      `toml:"design"`
	Slides  []Slide     `toml:"slides"`
	Images  []ImageSpec `toml:"images"`
}

// Design is the authoring grid in inches.
type Design struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Slide is one slide. Title and closing slides use Background and Bar;
// panel slides use the image/panel chrome fields.
type Slide struct {
	Kind string `toml:"kind"`
	Name string `toml:"name"`

	Background string  `toml:"background"`
	Bar        float64 `toml:"bar"`
	BarColor   string  `toml:"bar_color"`

	Image         string  `toml:"image"`
	Panel         string  `toml:"panel"`
	Stripe        string  `toml:"stripe"`
	Label         string  `toml:"label"`
	LabelTop      float64 `toml:"label_top"`
	Heading       []Line  `toml:"heading"`
	HeadingTop    float64 `toml:"heading_top"`
	HeadingHeight float64 `toml:"heading_height"`
	Divider       float64 `toml:"divider"`

	Boxes []Box  `toml:"boxes"`
	Steps *Steps `toml:"steps"`
}

// Box is a positioned rectangle. With Fill it is painted; with Lines it
// carries text. Both may be set.
type Box struct {
	X     float64 `toml:"x"`
	Y     float64 `toml:"y"`
	W     float64 `toml:"w"`
	H     float64 `toml:"h"`
	HPt   float64 `toml:"h_pt"`
	Fill  string  `toml:"fill"`
	Align string  `toml:"align"`
	Lines []Line  `toml:"lines"`
}

// Height returns the box height in inches, folding in HPt.
func (b Box) Height() float64 { return b.H + b.HPt/72 }

// Line is one paragraph of identically styled text. Embedded newlines are
// soft line breaks within it.
type Line struct {
	Text   string  `toml:"text"`
	Size   float64 `toml:"size"`
	Color  string  `toml:"color"`
	Font   string  `toml:"font"`
	Bold   bool    `toml:"bold"`
	Italic bool    `toml:"italic"`
	Align  string  `toml:"align"`
	// After is the space below the paragraph in points.
	After float64 `toml:"after"`
	// Spacing is the line pitch as a multiple of Size. Zero or 1 leaves
	// the font's natural pitch.
	Spacing float64 `toml:"line_spacing"`
}

// DefaultLineColor applies to lines that name no colour.
const DefaultLineColor = "warm_white"

// Segments splits the line at its soft breaks.
func (l Line) Segments() []string { return strings.Split(l.Text, "\n") }

// Steps is the numbered descending ladder.
type Steps struct {
	Top    float64 `toml:"top"`
	Pitch  float64 `toml:"pitch"`
	Indent float64 `toml:"indent"`
	From   string  `toml:"from"`
	To     string  `toml:"to"`
	Items  []Step  `toml:"items"`
}

// Step is one rung of the ladder.
type Step struct {
	Title    string `toml:"title"`
	Subtitle string `toml:"subtitle"`
}

// ImageSpec ties a slide image file to its procedural scene and its
// ordered photo fallbacks.
type ImageSpec struct {
	Name   string   `toml:"name"`
	Scene  string   `toml:"scene"`
	Photos []string `toml:"photos"`
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

// Default decodes the embedded deck. It panics if the embedded file is
// invalid, which the package tests rule out.
func Default() *Deck {
	d, err := Parse(defaultDeck)
	if err != nil {
		panic(fmt.Sprintf("content: embedded deck: %v", err))
	}
	return d
}

// Load reads a deck from path. An empty path returns the embedded deck.
func Load(path string) (*Deck, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates a deck.
func Parse(data []byte) (*Deck, error) {
	var d Deck
	md, err := toml.Decode(string(data), &d)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown content key %q", undecoded[0].String())
	}
	d.applyDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Deck) applyDefaults() {
	if d.Design.Width == 0 {
		d.Design.Width = 13.333
	}
	if d.Design.Height == 0 {
		d.Design.Height = 7.5
	}
	for i := range d.Slides {
		s := &d.Slides[i]
		if s.Kind == KindPanel {
			if s.Background == "" {
				s.Background = "near_black"
			}
			if s.LabelTop == 0 {
				s.LabelTop = 0.8
			}
			if s.HeadingHeight == 0 {
				s.HeadingHeight = 0.8
			}
		}
		if s.BarColor == "" {
			s.BarColor = "gold"
		}
		defaultColors(s.Heading)
		for j := range s.Boxes {
			defaultColors(s.Boxes[j].Lines)
		}
	}
}

func defaultColors(lines []Line) {
	for i := range lines {
		if lines[i].Color == "" {
			lines[i].Color = DefaultLineColor
		}
	}
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// Validate checks slide count, kinds, colours and image references.
func (d *Deck) Validate() error {
	if len(d.Slides) != SlideCount {
		return fmt.Errorf("deck has %d slides, want %d", len(d.Slides), SlideCount)
	}
	if d.Design.Width <= 0 || d.Design.Height <= 0 {
		return fmt.Errorf("invalid design grid %vx%v", d.Design.Width, d.Design.Height)
	}

	images := map[string]bool{}
	for _, img := range d.Images {
		if img.Name == "" {
			return fmt.Errorf("image with empty name")
		}
		if images[img.Name] {
			return fmt.Errorf("duplicate image %q", img.Name)
		}
		images[img.Name] = true
	}

	for i, s := range d.Slides {
		where := fmt.Sprintf("slide %d (%s)", i+1, s.Name)
		if err := s.validate(images); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

func (s Slide) validate(images map[string]bool) error {
	colors := []string{s.Background, s.BarColor}
	switch s.Kind {
	case KindTitle, KindClosing:
		if s.Background == "" {
			return fmt.Errorf("%s slide needs a background", s.Kind)
		}
	case KindPanel:
		if s.Image == "" || !images[s.Image] {
			return fmt.Errorf("panel image %q has no [[images]] entry", s.Image)
		}
		if s.Panel == "" || s.Stripe == "" {
			return fmt.Errorf("panel slide needs panel and stripe colours")
		}
		if len(s.Heading) == 0 {
			return fmt.Errorf("panel slide needs a heading")
		}
		colors = append(colors, s.Panel, s.Stripe)
		for _, l := range s.Heading {
			if err := l.validate(); err != nil {
				return fmt.Errorf("heading: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}

	for j, b := range s.Boxes {
		if b.W <= 0 || b.Height() <= 0 {
			return fmt.Errorf("box %d has no area", j+1)
		}
		if b.Fill == "" && len(b.Lines) == 0 {
			return fmt.Errorf("box %d has neither fill nor lines", j+1)
		}
		if err := validAlign(b.Align); err != nil {
			return fmt.Errorf("box %d: %w", j+1, err)
		}
		colors = append(colors, b.Fill)
		for _, l := range b.Lines {
			if err := l.validate(); err != nil {
				return fmt.Errorf("box %d: %w", j+1, err)
			}
		}
	}

	if s.Steps != nil {
		if len(s.Steps.Items) < 2 {
			return fmt.Errorf("steps need at least two items")
		}
		colors = append(colors, s.Steps.From, s.Steps.To)
	}

	for _, c := range colors {
		if c == "" {
			continue
		}
		if _, err := palette.Resolve(c); err != nil {
			return err
		}
	}
	return nil
}

// validate checks a line as the builder will use it. Colours are required
// here because defaults are only applied by Parse.
func (l Line) validate() error {
	if l.Size <= 0 {
		return fmt.Errorf("line %q has no size", l.Text)
	}
	if l.Spacing < 0 || l.After < 0 {
		return fmt.Errorf("line %q has negative spacing", l.Text)
	}
	if err := validAlign(l.Align); err != nil {
		return err
	}
	if l.Color == "" {
		return fmt.Errorf("line %q has no color", l.Text)
	}
	if _, err := palette.Resolve(l.Color); err != nil {
		return fmt.Errorf("line %q: %w", l.Text, err)
	}
	return nil
}

func validAlign(a string) error {
	switch a {
	case "", "left", "center", "right":
		return nil
	}
	return fmt.Errorf("invalid align %q", a)
}

// ///////////////////////////////////////////////
// Lookups
// ///////////////////////////////////////////////

// Image returns the spec for a named image.
func (d *Deck) Image(name string) (ImageSpec, bool) {
	for _, img := range d.Images {
		if img.Name == name {
			return img, true
		}
	}
	return ImageSpec{}, false
}
