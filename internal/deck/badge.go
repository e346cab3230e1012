package deck

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"tools.zach/dev/lessondeck/internal/fonts"
	"tools.zach/dev/lessondeck/internal/palette"
)

// badgePixels is the rendered edge of a badge PNG.
const badgePixels = 128

// Badge geometry on the design grid, in inches and points.
const (
	badgeSize   = 0.45
	badgePoints = 18
)

// badger rasterises numbered step badges with a single face.
type badger struct {
	face font.Face
}

func newBadger(data []byte) (*badger, error) {
	if len(data) == 0 {
		data = fonts.Builtin().Data
	}
	// Keep the digit the same share of the circle as 18pt in a 0.45in oval.
	face, err := fonts.Face(data, badgePixels*badgePoints/(badgeSize*72))
	if err != nil {
		return nil, fmt.Errorf("badge font: %w", err)
	}
	return &badger{face: face}, nil
}

func (b *badger) Close() error { return b.face.Close() }

// render draws label centred on a filled circle and returns PNG bytes.
func (b *badger) render(label string, fill, ink colorful.Color) ([]byte, error) {
	const r = badgePixels / 2.0
	dc := gg.NewContext(badgePixels, badgePixels)
	dc.SetColor(palette.NRGBA(fill))
	dc.DrawCircle(r, r, r)
	dc.Fill()

	dc.SetFontFace(b.face)
	dc.SetColor(palette.NRGBA(ink))
	// Digits sit on the baseline, so anchor below centre.
	dc.DrawStringAnchored(label, r, r, 0.5, 0.3)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode badge: %w", err)
	}
	return buf.Bytes(), nil
}
