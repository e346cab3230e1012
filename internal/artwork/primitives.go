package artwork

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"tools.zach/dev/lessondeck/internal/palette"
)

// ///////////////////////////////////////////////
// Shapes
// ///////////////////////////////////////////////

func (c *canvas) setColor(col colorful.Color) {
	c.dc.SetColor(palette.NRGBA(col))
}

// box fills the inclusive pixel rectangle [x0,x1]x[y0,y1].
func (c *canvas) box(x0, y0, x1, y1 float64, col colorful.Color) {
	c.setColor(col)
	c.dc.DrawRectangle(x0, y0, x1-x0+1, y1-y0+1)
	c.dc.Fill()
}

func (c *canvas) disc(x, y, r float64, col colorful.Color) {
	c.oval(x, y, r, r, col)
}

func (c *canvas) oval(x, y, rx, ry float64, col colorful.Color) {
	c.setColor(col)
	c.dc.DrawEllipse(x, y, rx, ry)
	c.dc.Fill()
}

func (c *canvas) ring(x, y, rx, ry, width float64, col colorful.Color) {
	c.setColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawEllipse(x, y, rx, ry)
	c.dc.Stroke()
}

// lowerArc strokes the bottom half of an ellipse.
func (c *canvas) lowerArc(x, y, rx, ry, width float64, col colorful.Color) {
	c.setColor(col)
	c.dc.SetLineWidth(width)
	c.dc.NewSubPath()
	c.dc.DrawEllipticalArc(x, y, rx, ry, 0, math.Pi)
	c.dc.Stroke()
}

func (c *canvas) line(x1, y1, x2, y2, width float64, col colorful.Color) {
	c.setColor(col)
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

// roundLine is a line with round caps, used for finger strokes.
func (c *canvas) roundLine(x1, y1, x2, y2, width float64, col colorful.Color) {
	c.dc.SetLineCapRound()
	c.line(x1, y1, x2, y2, width, col)
	c.dc.SetLineCapButt()
}

func (c *canvas) polygon(pts []gg.Point, col colorful.Color) {
	c.tracePolygon(pts)
	c.setColor(col)
	c.dc.Fill()
}

func (c *canvas) outlinedPolygon(pts []gg.Point, fill, outline colorful.Color, width float64) {
	c.tracePolygon(pts)
	c.setColor(fill)
	c.dc.FillPreserve()
	c.setColor(outline)
	c.dc.SetLineWidth(width)
	c.dc.Stroke()
}

func (c *canvas) tracePolygon(pts []gg.Point) {
	c.dc.NewSubPath()
	for i, p := range pts {
		if i == 0 {
			c.dc.MoveTo(p.X, p.Y)
			continue
		}
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
}

// glowDiscs paints concentric discs from outerR down to just above innerR,
// fading from inner at the centre to outer at the rim. ry is scaled by
// squash so the same helper serves flattened ellipses.
func (c *canvas) glowDiscs(x, y, outerR, innerR, step, squash float64, inner, outer colorful.Color) {
	for r := outerR; r > innerR; r -= step {
		c.oval(x, y, r, r*squash, palette.Lerp(inner, outer, r/outerR))
	}
}

// ///////////////////////////////////////////////
// Fills
// ///////////////////////////////////////////////

type stop struct {
	at  float64
	col colorful.Color
}

// gradient fills the canvas row by row, interpolating between stops by
// vertical position. Stops must be sorted by at and span [0,1].
func (c *canvas) gradient(stops ...stop) {
	for y := 0; y < DesignHeight; y++ {
		c.row(y, colourAt(stops, float64(y)/c.h))
	}
}

func (c *canvas) vertical(top, bottom colorful.Color) {
	c.gradient(stop{0, top}, stop{1, bottom})
}

// band fills rows [y0, y1) fading from top to bottom.
func (c *canvas) band(y0, y1 int, top, bottom colorful.Color) {
	n := float64(y1 - y0)
	for y := y0; y < y1; y++ {
		c.row(y, palette.Lerp(top, bottom, float64(y-y0)/n))
	}
}

func colourAt(stops []stop, t float64) colorful.Color {
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t < b.at || i == len(stops)-1 {
			return palette.Lerp(a.col, b.col, (t-a.at)/(b.at-a.at))
		}
	}
	return stops[len(stops)-1].col
}

func (c *canvas) row(y int, col colorful.Color) {
	if y < 0 || y >= DesignHeight {
		return
	}
	p := palette.NRGBA(col)
	o := c.img.PixOffset(0, y)
	pix := c.img.Pix[o : o+DesignWidth*4]
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = p.R, p.G, p.B, 255
	}
}

func (c *canvas) point(x, y int, col colorful.Color) {
	if x < 0 || y < 0 || x >= DesignWidth || y >= DesignHeight {
		return
	}
	p := palette.NRGBA(col)
	o := c.img.PixOffset(x, y)
	c.img.Pix[o], c.img.Pix[o+1], c.img.Pix[o+2], c.img.Pix[o+3] = p.R, p.G, p.B, 255
}

// mixPixel moves the pixel at (x, y) toward col by t.
func (c *canvas) mixPixel(x, y int, col [3]float64, t float64) {
	o := c.img.PixOffset(x, y)
	px := c.img.Pix[o : o+3]
	for i := range 3 {
		px[i] = clamp8(float64(px[i]) + (col[i]-float64(px[i]))*t)
	}
}

func rgb255(col colorful.Color) [3]float64 {
	return [3]float64{col.R * 255, col.G * 255, col.B * 255}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// ///////////////////////////////////////////////
// Light
// ///////////////////////////////////////////////

// radialGlow washes the whole canvas with a radial ramp from inner at
// (cx, cy) to outer at radius r, eased quadratically. The ramp covers 70%
// of each pixel so the existing image still shows through.
func (c *canvas) radialGlow(cx, cy, r float64, inner, outer colorful.Color) {
	in, out := rgb255(inner), rgb255(outer)
	for y := 0; y < DesignHeight; y++ {
		dy := float64(y) - cy
		for x := 0; x < DesignWidth; x++ {
			dx := float64(x) - cx
			t := math.Min(math.Sqrt(dx*dx+dy*dy)/r, 1)
			t *= t
			var col [3]float64
			for i := range 3 {
				col[i] = in[i] + (out[i]-in[i])*t
			}
			c.mixPixel(x, y, col, 0.7)
		}
	}
}

// vignette adds a soft grey bloom centred on the canvas.
func (c *canvas) vignette() {
	const r = 1200
	cx, cy := c.w/2, c.h/2
	for y := 0; y < DesignHeight; y++ {
		dy := float64(y) - cy
		for x := 0; x < DesignWidth; x++ {
			dx := float64(x) - cx
			t := math.Min(math.Sqrt(dx*dx+dy*dy)/r, 1)
			v := 60 * (1 - t*t) * 0.7
			o := c.img.PixOffset(x, y)
			for i := range 3 {
				c.img.Pix[o+i] = clamp8(float64(c.img.Pix[o+i]) + v)
			}
		}
	}
}

// lightRays draws n rays from (cx, cy), each a dim wide stroke under a
// brighter narrow one.
func (c *canvas) lightRays(cx, cy float64, n int, length float64, col colorful.Color) {
	for i := range n {
		angle := 2*math.Pi*float64(i)/float64(n) + c.uniform(-0.1, 0.1)
		ex := cx + math.Cos(angle)*length
		ey := cy + math.Sin(angle)*length
		for w := 3; w >= 1; w-- {
			c.line(cx, cy, ex, ey, float64(w), palette.Lerp(col, palette.NearBlack, 0.5+float64(w)*0.15))
		}
	}
}

// cross draws a latin cross centred on (cx, cy) with the crossbar a third
// of the way up. With glow it is wrapped in six fading halos.
func (c *canvas) cross(cx, cy, size, thickness float64, col colorful.Color, glow bool) {
	half := math.Floor(size / 2)
	t := math.Floor(thickness / 2)
	bar := cy - math.Floor(half/3)
	arm := math.Floor(half / 2)

	if glow {
		for g := 6.0; g >= 1; g-- {
			gc := palette.Lerp(col, palette.NearBlack, 0.3+g*0.1)
			gt := t + g*4
			c.box(cx-gt, cy-half-g*3, cx+gt, cy+half+g*3, gc)
			c.box(cx-arm-g*3, bar-gt, cx+arm+g*3, bar+gt, gc)
		}
	}
	c.box(cx-t, cy-half, cx+t, cy+half, col)
	c.box(cx-arm, bar-t, cx+arm, bar+t, col)
}

// stars scatters faint pinpoints inside r.
func (c *canvas) stars(count int, r image.Rectangle) {
	for range count {
		x := c.randint(r.Min.X, r.Max.X)
		y := c.randint(r.Min.Y, r.Max.Y)
		b := float64(c.randint(150, 255))
		big := c.randint(0, 3) == 3
		col := colorful.Color{R: b / 255, G: b / 255, B: (b - float64(c.randint(0, 30))) / 255}
		if big {
			c.disc(float64(x), float64(y), 1.5, col)
			continue
		}
		c.point(x, y, col)
	}
}

// bokeh paints blurred out-of-focus discs on a black layer and adds it to
// the canvas.
func (c *canvas) bokeh(count, minR, maxR int) {
	layer := gg.NewContext(DesignWidth, DesignHeight)
	layer.SetColor(palette.NRGBA(palette.Black))
	layer.Clear()
	for range count {
		x := float64(c.randint(0, DesignWidth))
		y := float64(c.randint(0, DesignHeight))
		r := float64(c.randint(minR, maxR))
		alpha := float64(c.randint(15, 40))
		col := palette.Lerp(palette.Gold, palette.WarmWhite, c.rng.Float64())
		layer.SetColor(palette.NRGBA(palette.Scale(col, alpha/255)))
		layer.DrawCircle(x, y, r)
		layer.Fill()
	}
	c.add(imaging.Blur(layer.Image(), 15))
}

// add sums src into the canvas channel by channel, saturating at white.
func (c *canvas) add(src *image.NRGBA) {
	for y := 0; y < DesignHeight; y++ {
		so := src.PixOffset(0, y)
		do := c.img.PixOffset(0, y)
		for x := 0; x < DesignWidth*4; x += 4 {
			for i := range 3 {
				c.img.Pix[do+x+i] = clamp8(float64(c.img.Pix[do+x+i]) + float64(src.Pix[so+x+i]))
			}
		}
	}
}

// soften applies a light Gaussian blur to the whole canvas.
func (c *canvas) soften(sigma float64) {
	blurred := imaging.Blur(c.img, sigma)
	draw.Draw(c.img, c.img.Bounds(), blurred, image.Point{}, draw.Src)
}
