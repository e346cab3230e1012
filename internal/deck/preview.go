package deck

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"tools.zach/dev/lessondeck/internal/atomicfile"
	"tools.zach/dev/lessondeck/internal/fonts"
	"tools.zach/dev/lessondeck/internal/paths"
)

// Default text frame insets in EMU, as PowerPoint applies them.
const (
	insetX = 91440
	insetY = 45720
	// emuPerPoint converts point sizes to slide units.
	emuPerPoint = 12700
)

// Preview renders every slide to a PNG thumbnail of the given width under
// dir and returns the written paths. fontDirs are searched for the faces
// named in the deck; Go fonts stand in for anything not found.
func Preview(ctx context.Context, res *Result, dir string, width int, fontDirs ...string) ([]string, error) {
	layout := res.Presentation.GetLayout()
	if width <= 0 {
		width = 1280
	}
	r := &rasterizer{
		scale: float64(width) / float64(layout.CX),
		w:     width,
		h:     int(math.Round(float64(layout.CY) * float64(width) / float64(layout.CX))),
		faces: newFaceSet(fontDirs),
	}
	defer r.faces.Close()

	slides := res.Presentation.GetAllSlides()
	written := make([]string, 0, len(slides))
	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		img, err := r.slide(slide)
		if err != nil {
			return written, fmt.Errorf("render slide %d: %w", i+1, err)
		}
		path := filepath.Join(dir, paths.PreviewFile(i+1))
		err = atomicfile.WriteFunc(path, 0o644, func(w io.Writer) error {
			return imaging.Encode(w, img, imaging.PNG)
		})
		if err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ///////////////////////////////////////////////
// Rasterizer
// ///////////////////////////////////////////////

// rasterizer draws the shapes this package writes: solid rectangles, text
// frames and pictures. Rotation, borders and gradients are never produced
// by Build and are ignored.
type rasterizer struct {
	scale float64
	w, h  int
	faces *faceSet
}

func (r *rasterizer) px(emu int64) float64 { return float64(emu) * r.scale }

func (r *rasterizer) slide(s *ppt.Slide) (image.Image, error) {
	dc := gg.NewContext(r.w, r.h)
	dc.SetColor(color.White)
	dc.Clear()
	for _, shape := range s.GetShapes() {
		switch sh := shape.(type) {
		case *ppt.RichTextShape:
			if err := r.text(dc, sh); err != nil {
				return nil, err
			}
		case *ppt.DrawingShape:
			r.picture(dc, sh)
		}
	}
	return dc.Image(), nil
}

func (r *rasterizer) picture(dc *gg.Context, s *ppt.DrawingShape) {
	w, h := int(math.Round(r.px(s.GetWidth()))), int(math.Round(r.px(s.GetHeight())))
	if w <= 0 || h <= 0 {
		return
	}
	src, err := imaging.Decode(bytes.NewReader(s.GetImageData()))
	if err != nil {
		return
	}
	dc.DrawImage(imaging.Resize(src, w, h, imaging.Linear), int(math.Round(r.px(s.GetOffsetX()))), int(math.Round(r.px(s.GetOffsetY()))))
}

func (r *rasterizer) text(dc *gg.Context, s *ppt.RichTextShape) error {
	x, y := r.px(s.GetOffsetX()), r.px(s.GetOffsetY())
	w, h := r.px(s.GetWidth()), r.px(s.GetHeight())
	if fill := s.GetFill(); fill.Type == ppt.FillSolid {
		dc.SetColor(argbColor(fill.Color))
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
	}

	left, right := x+r.px(insetX), x+w-r.px(insetX)
	top := y + r.px(insetY)
	for _, para := range s.GetParagraphs() {
		var err error
		top, err = r.paragraph(dc, para, left, right, top)
		if err != nil {
			return err
		}
	}
	return nil
}

// paragraph draws para between left and right from top and returns the top
// of the next paragraph. Each soft break starts a new row; rows wrap at
// word boundaries.
func (r *rasterizer) paragraph(dc *gg.Context, para *ppt.Paragraph, left, right, top float64) (float64, error) {
	// A row takes the font of its first run.
	type row struct {
		font *ppt.Font
		text string
	}
	var rows []row
	var cur row
	flush := func() {
		if cur.font != nil {
			rows = append(rows, cur)
		}
		cur = row{}
	}
	for _, elem := range para.GetElements() {
		switch e := elem.(type) {
		case *ppt.TextRun:
			if cur.font == nil {
				cur.font = e.GetFont()
			}
			cur.text += e.GetText()
		case *ppt.BreakElement:
			flush()
		}
	}
	flush()

	var align ppt.HorizontalAlignment
	if a := para.GetAlignment(); a != nil {
		align = a.Horizontal
	}
	for _, rw := range rows {
		f := rw.font
		size := r.px(int64(f.Size) * emuPerPoint)
		face, err := r.faces.face(f.Name, f.Bold, f.Italic, size)
		if err != nil {
			return top, err
		}
		dc.SetFontFace(face)
		dc.SetColor(argbColor(f.Color))

		pitch := float64(face.Metrics().Height) / 64
		if ls := para.GetLineSpacing(); ls > 0 {
			pitch = r.px(int64(ls) * emuPerPoint / 100)
		}
		ascent := float64(face.Metrics().Ascent) / 64
		for _, line := range dc.WordWrap(rw.text, right-left) {
			lx, ax := left, 0.0
			switch align {
			case ppt.HorizontalCenter:
				lx, ax = (left+right)/2, 0.5
			case ppt.HorizontalRight:
				lx, ax = right, 1
			}
			dc.DrawStringAnchored(line, lx, top+ascent, ax, 0)
			top += pitch
		}
	}
	return top + r.px(int64(para.GetSpaceAfter())*emuPerPoint/100), nil
}

// argbColor converts the writer's AARRGGBB form. Unparseable channels read
// as zero.
func argbColor(c ppt.Color) color.NRGBA {
	return color.NRGBA{R: c.GetRed(), G: c.GetGreen(), B: c.GetBlue(), A: c.GetAlpha()}
}

// ///////////////////////////////////////////////
// Faces
// ///////////////////////////////////////////////

type faceKey struct {
	name         string
	bold, italic bool
	px           float64
}

// faceSet finds font files by family name under a list of directories and
// caches the faces built from them.
type faceSet struct {
	files []string
	data  map[string][]byte
	faces map[faceKey]font.Face
}

func newFaceSet(dirs []string) *faceSet {
	set := &faceSet{data: map[string][]byte{}, faces: map[faceKey]font.Face{}}
	for _, dir := range dirs {
		matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{ttf,otf,TTF,OTF}", doublestar.WithFilesOnly())
		if err != nil {
			continue
		}
		for _, m := range matches {
			set.files = append(set.files, filepath.Join(dir, filepath.FromSlash(m)))
		}
	}
	return set
}

func (s *faceSet) face(name string, bold, italic bool, px float64) (font.Face, error) {
	key := faceKey{name, bold, italic, math.Round(px*4) / 4}
	if f, ok := s.faces[key]; ok {
		return f, nil
	}
	f, err := fonts.Face(s.load(name, bold, italic), max(key.px, 1))
	if err != nil {
		return nil, err
	}
	s.faces[key] = f
	return f, nil
}

// load returns the best file for the family and style, or the matching Go
// font.
func (s *faceSet) load(name string, bold, italic bool) []byte {
	if path := s.lookup(name, bold, italic); path != "" {
		if data, ok := s.data[path]; ok {
			return data
		}
		if data, err := fonts.LoadFile(path); err == nil {
			s.data[path] = data
			return data
		}
	}
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	}
	return goregular.TTF
}

// lookup matches file names like "Georgia Bold Italic.ttf" or
// "georgiab.ttf" against the family name and requested style.
func (s *faceSet) lookup(name string, bold, italic bool) string {
	family := squash(name)
	if family == "" {
		return ""
	}
	best, bestScore := "", -1
	for _, path := range s.files {
		base := squash(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		rest, ok := strings.CutPrefix(base, family)
		if !ok {
			continue
		}
		isBold := strings.Contains(rest, "bold") || rest == "b" || rest == "z"
		isItalic := strings.Contains(rest, "italic") || strings.Contains(rest, "oblique") || rest == "i" || rest == "z"
		score := 0
		if isBold == bold {
			score += 2
		}
		if isItalic == italic {
			score++
		}
		if score > bestScore {
			best, bestScore = path, score
		}
	}
	return best
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

func (s *faceSet) Close() error {
	for _, f := range s.faces {
		f.Close()
	}
	return nil
}
