package deck

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"
	"tools.zach/dev/lessondeck/internal/content"
	"tools.zach/dev/lessondeck/internal/palette"
)

// Slide geometry of the 16:9 widescreen layout, 13.333 x 7.5 in.
const (
	EMUPerInch  = 914400
	SlideWidth  = 12192000
	SlideHeight = 6858000
)

const defaultFont = "Calibri"

// canvas places design-grid geometry onto one slide.
type canvas struct {
	slide *ppt.Slide
	// scale maps design inches onto the slide; 1 for the stock grid.
	scale float64
	// w and h are the slide size in EMU.
	w, h  int64
	log   *slog.Logger
	info  *SlideInfo
	res   *Result
}

// emu converts design inches to slide EMU.
func (c *canvas) emu(in float64) int64 {
	return int64(math.Round(in * c.scale * EMUPerInch))
}

// points scales a design font size, rounding to at least 1pt.
func (c *canvas) points(pt float64) int {
	return max(1, int(math.Round(pt*c.scale)))
}

// argb resolves a palette name or hex value to the library's AARRGGBB form.
func argb(name string) (string, error) {
	col, err := palette.Resolve(name)
	if err != nil {
		return "", err
	}
	return palette.ARGB(col), nil
}

// ///////////////////////////////////////////////
// Shapes
// ///////////////////////////////////////////////

// background covers the whole slide. It must be the first shape placed.
func (c *canvas) background(color string) error {
	fill, err := argb(color)
	if err != nil {
		return err
	}
	s := c.slide.CreateRichTextShape()
	s.SetOffsetX(0).SetOffsetY(0)
	s.SetWidth(c.w).SetHeight(c.h)
	s.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(fill)))
	c.info.Shapes++
	return nil
}

// rect places a borderless filled rectangle.
func (c *canvas) rect(x, y, w, h float64, color string) error {
	fill, err := argb(color)
	if err != nil {
		return err
	}
	s := c.slide.CreateRichTextShape()
	s.SetOffsetX(c.emu(x)).SetOffsetY(c.emu(y))
	s.SetWidth(c.emu(w)).SetHeight(c.emu(h))
	s.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(fill)))
	c.info.Shapes++
	return nil
}

// text places a box. The fill, when set, is painted behind the lines.
func (c *canvas) text(b content.Box) error {
	s := c.slide.CreateRichTextShape()
	s.SetOffsetX(c.emu(b.X)).SetOffsetY(c.emu(b.Y))
	s.SetWidth(c.emu(b.W)).SetHeight(c.emu(b.Height()))
	if b.Fill != "" {
		fill, err := argb(b.Fill)
		if err != nil {
			return err
		}
		s.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(fill)))
	}
	c.info.Shapes++

	for i, l := range b.Lines {
		if i > 0 {
			s.CreateParagraph()
		}
		if err := c.line(s.GetActiveParagraph(), l, b.Align); err != nil {
			return err
		}
	}
	return nil
}

// line fills one paragraph. Embedded newlines become soft breaks so the
// paragraph keeps a single spacing rule.
func (c *canvas) line(p *ppt.Paragraph, l content.Line, boxAlign string) error {
	col, err := argb(l.Color)
	if err != nil {
		return err
	}
	for i, seg := range l.Segments() {
		if i > 0 {
			p.CreateBreak()
		}
		c.run(p, seg, l, col)
		c.info.Texts = append(c.info.Texts, seg)
	}

	align := l.Align
	if align == "" {
		align = boxAlign
	}
	setAlign(p, align)
	if l.After > 0 {
		p.SetSpaceAfter(hundredths(l.After))
	}
	if l.Spacing > 0 && l.Spacing != 1 {
		p.SetLineSpacing(hundredths(float64(c.points(l.Size)) * l.Spacing))
	}
	return nil
}

// hundredths converts points to the library's 1/100 pt spacing unit.
func hundredths(pt float64) int { return int(math.Round(pt * 100)) }

func (c *canvas) run(p *ppt.Paragraph, text string, l content.Line, col string) {
	tr := p.CreateTextRun(text)
	f := tr.GetFont()
	f.SetSize(c.points(l.Size)).SetBold(l.Bold).SetColor(ppt.NewColor(col))
	f.Name = defaultFont
	if l.Font != "" {
		f.Name = l.Font
	}
	f.Italic = l.Italic
}

func setAlign(p *ppt.Paragraph, align string) {
	switch align {
	case "center":
		p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
	case "right":
		p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalRight))
	}
}

// ///////////////////////////////////////////////
// Pictures
// ///////////////////////////////////////////////

// image places a picture file. A missing file is logged and skipped, and
// image reports false.
func (c *canvas) image(path string, x, y, w, h float64) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.log.Warn("image not found", "path", path, "slide", c.info.Index)
			c.res.Missing = append(c.res.Missing, path)
			return false, nil
		}
		return false, err
	}
	c.picture(data, mimeType(path), x, y, w, h)
	return true, nil
}

// picture places encoded image bytes.
func (c *canvas) picture(data []byte, mime string, x, y, w, h float64) {
	s := c.slide.CreateDrawingShape()
	s.SetImageData(data, mime)
	s.SetOffsetX(c.emu(x)).SetOffsetY(c.emu(y))
	s.SetWidth(c.emu(w)).SetHeight(c.emu(h))
	c.info.Shapes++
	c.info.Pictures++
}

func mimeType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
