package artwork

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"tools.zach/dev/lessondeck/internal/palette"
)

const (
	sw = DesignWidth
	sh = DesignHeight
)

var (
	silhouette = rgb(10, 5, 15)
	skin       = rgb(140, 90, 60)
	linen      = rgb(180, 170, 150)
	linenFold  = rgb(150, 140, 120)
	thorn      = rgb(100, 70, 40)
	ashWhite   = rgb(180, 170, 160)
)

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func pt(x, y float64) gg.Point { return gg.Point{X: x, Y: y} }

// ///////////////////////////////////////////////
// Cross / mindset
// ///////////////////////////////////////////////

// paintCrossMindset: a glowing cross against a purple sky with gold rays.
func paintCrossMindset(c *canvas) {
	c.vertical(palette.DeepPurple, palette.DarkBurgundy)
	c.stars(80, image.Rect(0, 0, sw, sh/2))
	c.lightRays(sw/2, sh/3, 24, 900, palette.Gold)
	c.radialGlow(sw/2, sh/3, 500, palette.LightGold, palette.DeepPurple)
	c.cross(sw/2, sh/2-30, 500, 40, palette.WarmWhite, true)
	c.bokeh(10, 30, 60)
	c.vignette()
	c.soften(1)
}

// ///////////////////////////////////////////////
// Incarnation
// ///////////////////////////////////////////////

// paintIncarnation: a star over a stable with a beam of light between them.
func paintIncarnation(c *canvas) {
	c.vertical(palette.Midnight, palette.DeepTeal)
	c.stars(200, image.Rect(0, 0, sw, sh*2/3))

	const sx, sy = sw / 2, 120
	c.glowDiscs(sx, sy, 120, 0, 2, 1, palette.WarmWhite, palette.DeepPurple)
	for i := range 4 {
		a := float64(i) * math.Pi / 2
		for _, length := range []float64{200, 150} {
			ex, ey := sx+math.Cos(a)*length, sy+math.Sin(a)*length
			c.line(sx, sy, ex, ey, 2, palette.WarmWhite)
			c.line(sx, sy, ex, ey, 1, palette.LightGold)
		}
	}
	for i := range 4 {
		a := math.Pi/4 + float64(i)*math.Pi/2
		c.line(sx, sy, sx+math.Cos(a)*100, sy+math.Sin(a)*100, 1, palette.PaleGold)
	}

	// Beam widens from 20px under the star to 300px at the bottom edge.
	top := sy + 60
	for y := top; y < sh; y++ {
		t := float64(y-top) / float64(sh-top)
		bw := 20 + 280*t
		col := rgb255(palette.Lerp(palette.Lerp(palette.LightGold, palette.DeepTeal, t*0.8), palette.WarmWhite, 0.2))
		left := max(0, int(sx-bw/2))
		right := min(sw, int(sx+bw/2))
		for x := left; x < right; x++ {
			dx := math.Abs(float64(x-sx)) / (bw / 2)
			if b := 1 - dx*dx; b > 0 {
				c.mixPixel(x, y, col, b*0.3)
			}
		}
	}

	c.band(sh-150, sh, palette.DarkTeal, palette.NearBlack)

	const mx, base = sw / 2, sh - 80
	c.polygon([]gg.Point{pt(mx-120, base), pt(mx, base-100), pt(mx+120, base)}, silhouette)
	c.box(mx-30, base-60, mx+30, base, silhouette)
	c.glowDiscs(mx, base-40, 20, 0, 1, 0.5, palette.LightGold, silhouette)

	c.bokeh(8, 15, 40)
}

// ///////////////////////////////////////////////
// Emptying
// ///////////////////////////////////////////////

// paintEmptying: a chalice pouring a stream of golden light down and left.
func paintEmptying(c *canvas) {
	c.vertical(palette.RichPurple, palette.NearBlack)

	const vx, vy = sw * 2 / 3, sh / 3
	c.ring(vx, vy-20, 80, 30, 3, palette.Gold)
	c.lowerArc(vx, vy-20, 80, 30, 3, palette.Gold)
	c.line(vx, vy+10, vx, vy+80, 3, palette.Gold)
	c.ring(vx, vy+80, 40, 10, 2, palette.Gold)

	const px, py = vx - 60, vy - 20
	c.reseed(42)
	for range 500 {
		t := c.rng.Float64()
		x := px - t*400 + c.gauss(0, t*200*0.3)
		y := py + t*600 + c.gauss(0, 20)
		bright := 1 - t*0.6
		size := math.Max(1, math.Floor(3*bright))
		col := palette.Lerp(palette.LightGold, palette.DeepPurple, t*0.7)
		c.disc(x, y, size, palette.Lerp(col, palette.WarmWhite, bright*0.5))
	}

	for i := range 30 {
		t := float64(i) / 30
		x := px - t*350 + c.gauss(0, t*60)
		y := py + t*550 + c.gauss(0, 15)
		r := float64(c.randint(3, 8))
		col := palette.Lerp(palette.WarmWhite, palette.Gold, t)
		for g := r + 6; g > r; g-- {
			c.disc(x, y, g, palette.Lerp(col, palette.DeepPurple, (g-r)/6))
		}
		c.disc(x, y, r, col)
	}

	c.stars(60, image.Rect(0, 0, sw, sh))
	c.bokeh(12, 20, 50)
	c.soften(1)
}

// ///////////////////////////////////////////////
// Humble
// ///////////////////////////////////////////////

// paintHumble: a basin of water with a towel beside it under candlelight.
func paintHumble(c *canvas) {
	c.vertical(palette.DarkBurgundy, palette.NearBlack)
	c.radialGlow(sw/2, 0, 900, rgb(80, 40, 20), palette.NearBlack)

	const bx, by = sw / 2, sh * 2 / 3
	c.ring(bx, by+10, 200, 50, 3, palette.Gold)
	c.lowerArc(bx, by+10, 200, 50, 3, palette.Gold)

	water := rgb(40, 60, 80)
	for off := 0; off < 50; off += 2 {
		t := float64(off) / 50
		shrink := math.Floor(t * 60)
		y := float64(by + off)
		c.line(bx-190+shrink, y, bx+190-shrink, y, 1, palette.Lerp(water, palette.NearBlack, t))
	}

	spray := rgb(60, 80, 120)
	for i := range 15 {
		y := float64(by - 200 + i*15)
		x := float64(sw/2 + c.randint(-20, 20))
		size := float64(max(1, 4-i/4))
		// Drops are taller above their centre than below.
		c.oval(x, y-size/2, size, size*1.5, palette.Lerp(palette.WarmWhite, spray, float64(i)/15))
	}

	ripple := rgb(80, 100, 130)
	for r := 20; r < 180; r += 25 {
		c.lowerArc(bx, by, float64(r), float64(r/4), 1, palette.Lerp(ripple, palette.NearBlack, float64(r)/180))
	}

	towel := []gg.Point{
		pt(bx+180, by-20),
		pt(bx+280, by-60),
		pt(bx+300, by+40),
		pt(bx+220, by+80),
		pt(bx+190, by+30),
	}
	c.polygon(towel, linen)
	c.line(towel[0].X, towel[0].Y, bx+250, by, 1, linenFold)
	c.line(bx+240, by-30, bx+260, by+50, 1, linenFold)

	c.glowDiscs(sw/2-100, 50, 200, 0, 3, 1.0/3, palette.LightGold, palette.DarkBurgundy)

	const cx, cy = sw / 4, sh / 4
	shadow := palette.Lerp(palette.DarkBurgundy, palette.NearBlack, 0.5)
	c.box(cx-3, cy-80, cx+3, cy+80, shadow)
	c.box(cx-50, cy-28, cx+50, cy-22, shadow)

	c.bokeh(8, 10, 30)
}

// ///////////////////////////////////////////////
// Cross / death
// ///////////////////////////////////////////////

// paintCrossDeath: three crosses on a hill under a blood-red horizon.
func paintCrossDeath(c *canvas) {
	c.gradient(
		stop{0, palette.NearBlack},
		stop{0.4, palette.DeepPurple},
		stop{0.7, palette.Burgundy},
		stop{1, palette.NearBlack},
	)
	c.stars(40, image.Rect(0, 0, sw, sh/3))

	c.cross(sw/2, sh/2-50, 550, 45, palette.WarmWhite, true)
	c.cross(sw/4, sh/2+20, 380, 30, ashWhite, false)
	c.cross(3*sw/4, sh/2+20, 380, 30, ashWhite, false)

	const kx, ky = sw / 2, sh/2 - 50 - 550/3
	for i := range 60 {
		a := 2 * math.Pi * float64(i) / 60
		r := float64(50 + c.randint(-5, 5))
		x1 := kx + math.Cos(a)*r
		y1 := ky + math.Sin(a)*r*0.4
		ta := a + c.uniform(-0.3, 0.3)
		tl := float64(c.randint(8, 20))
		c.line(x1, y1, x1+math.Cos(ta)*tl, y1+math.Sin(ta)*tl, 1, thorn)
	}
	c.ring(kx, ky, 50, 20, 2, thorn)

	hill := []gg.Point{pt(0, sh)}
	for x := 0.0; x <= sw+19; x += 20 {
		hill = append(hill, pt(x, sh-80+30*math.Sin(x/200)+15*math.Sin(x/80)))
	}
	hill = append(hill, pt(sw, sh))
	c.polygon(hill, palette.NearBlack)

	c.radialGlow(sw/2, sh-100, 300, palette.Burgundy, palette.NearBlack)
	c.soften(1)
}

// ///////////////////////////////////////////////
// Descending
// ///////////////////////////////////////////////

// paintDescending: five steps stepping down to the right with an arrow.
func paintDescending(c *canvas) {
	c.vertical(palette.DeepTeal, palette.DeepPurple)

	const (
		steps = 5
		stepW = 200
		stepH = 120
		x0    = 200
		y0    = 80
		pitch = stepW + 40
	)
	for i := range steps {
		x := float64(x0 + i*pitch)
		y := float64(y0 + i*stepH)
		t := float64(i) / (steps - 1)
		base := palette.Lerp(palette.LightGold, palette.Burgundy, t)

		c.polygon([]gg.Point{pt(x, y), pt(x+stepW, y), pt(x+stepW+30, y+20), pt(x+30, y+20)},
			palette.Lerp(base, palette.WarmWhite, 0.3))
		c.polygon([]gg.Point{pt(x+30, y+20), pt(x+stepW+30, y+20), pt(x+stepW+30, y+70), pt(x+30, y+70)}, base)
		c.polygon([]gg.Point{pt(x, y), pt(x+30, y+20), pt(x+30, y+70), pt(x, y+50)},
			palette.Lerp(base, palette.NearBlack, 0.5))

		c.glowDiscs(x+stepW/2+15, y+30, 25, 0, 1, 1, palette.WarmWhite, base)
	}

	arrow := []gg.Point{
		pt(sw/2, sh-180),
		pt(sw/2-60, sh-260),
		pt(sw/2-25, sh-260),
		pt(sw/2-25, sh-380),
		pt(sw/2+25, sh-380),
		pt(sw/2+25, sh-260),
		pt(sw/2+60, sh-260),
	}
	for g := 8.0; g >= 1; g-- {
		jittered := make([]gg.Point, len(arrow))
		for i, p := range arrow {
			jittered[i] = pt(p.X+c.gauss(0, g), p.Y+c.gauss(0, g))
		}
		c.polygon(jittered, palette.Lerp(palette.Gold, palette.NearBlack, g/8))
	}
	c.polygon(arrow, palette.Gold)

	c.reseed(100)
	for range 200 {
		i := c.rng.Float64() * 4
		x := x0 + i*pitch + c.gauss(stepW/2, 50)
		y := y0 + i*stepH + c.gauss(30, 20)
		size := float64(c.randint(0, 2)/2 + 1)
		c.disc(x, y, size, palette.Lerp(palette.LightGold, palette.WarmWhite, c.rng.Float64()))
	}

	c.bokeh(10, 15, 45)
}

// ///////////////////////////////////////////////
// Serving hands
// ///////////////////////////////////////////////

var (
	palm = []gg.Point{
		pt(-100, 20), pt(-80, -30), pt(-40, -50), pt(0, -55), pt(40, -45),
		pt(70, -20), pt(80, 10), pt(60, 40), pt(0, 50), pt(-60, 45),
	}
	fingerStarts = []gg.Point{pt(-50, -40), pt(-20, -52), pt(10, -55), pt(40, -45)}
	fingerEnds   = []gg.Point{pt(-70, -90), pt(-25, -110), pt(15, -105), pt(55, -85)}
)

// paintServingHands: two open hands offering a glowing orb.
func paintServingHands(c *canvas) {
	c.vertical(palette.DarkBurgundy, palette.DeepPurple)
	c.radialGlow(sw/2, sh/2, 500, palette.LightGold, palette.DeepPurple)

	const hy = sh / 2
	c.hand(sw/2-200, hy, 1)
	c.hand(sw/2+200, hy, -1)

	const ox, oy = sw / 2, hy
	c.glowDiscs(ox, oy, 80, 0, 1, 1, palette.WarmWhite, palette.LightGold)

	c.reseed(55)
	sizes := [...]float64{1, 1, 2, 2, 3}
	for range 150 {
		a := c.uniform(0, 2*math.Pi)
		d := c.gauss(100, 60)
		size := sizes[c.rng.IntN(len(sizes))]
		bright := math.Max(0, 1-math.Abs(d)/250)
		c.disc(ox+math.Cos(a)*d, oy+math.Sin(a)*d, size, palette.Lerp(palette.LightGold, palette.WarmWhite, bright))
	}

	c.bokeh(10, 20, 50)
}

// hand draws a palm-up hand centred on (cx, cy). dir -1 mirrors it.
func (c *canvas) hand(cx, cy, dir float64) {
	outline := make([]gg.Point, len(palm))
	for i, p := range palm {
		outline[i] = pt(cx+dir*p.X, cy+p.Y)
	}
	c.outlinedPolygon(outline, skin, palette.Gold, 1)

	for i := range fingerStarts {
		s, e := fingerStarts[i], fingerEnds[i]
		ex, ey := cx+dir*e.X, cy+e.Y
		c.roundLine(cx+dir*s.X, cy+s.Y, ex, ey, 12, skin)
		c.disc(ex, ey, 6, skin)
	}
}

// ///////////////////////////////////////////////
// Contemplating
// ///////////////////////////////////////////////

// paintContemplating: a figure at a fork between a dim path and a golden
// one, with a question mark traced in light above.
func paintContemplating(c *canvas) {
	c.vertical(palette.DeepPurple, palette.DarkTeal)

	worldly := rgb(60, 40, 50)
	for i := range 200 {
		t := float64(i) / 200
		y := sh - 50 - t*(sh-200)

		xl := sw/2 - t*400
		wl := 120 * (1 - t*0.7)
		c.line(xl-wl/2, y, xl+wl/2, y, 2, palette.Lerp(worldly, palette.NearBlack, t))
	}
	for i := range 200 {
		t := float64(i) / 200
		y := sh - 50 - t*(sh-200)

		xr := sw/2 + t*300
		wr := 120 * (1 - t*0.6)
		c.line(xr-wr/2, y, xr+wr/2, y, 2, palette.Lerp(palette.Gold, palette.DeepPurple, t*0.8))
	}

	const kx, ky = sw/2 + 280, 150
	c.glowDiscs(kx, ky, 60, 0, 2, 1, palette.LightGold, palette.DeepPurple)
	c.cross(kx, ky, 80, 6, palette.WarmWhite, false)

	const fx, base = sw / 2, sh - 100
	c.disc(fx, base-160, 18, palette.NearBlack)
	c.line(fx, base-142, fx, base-60, 8, palette.NearBlack)
	c.line(fx, base-120, fx-40, base-90, 6, palette.NearBlack)
	c.line(fx, base-120, fx+40, base-90, 6, palette.NearBlack)
	c.line(fx, base-60, fx-25, base, 6, palette.NearBlack)
	c.line(fx, base-60, fx+25, base, 6, palette.NearBlack)

	const qx, qy = sw/2 - 50, sh / 3
	var dots []gg.Point
	for i := range 30 {
		a := math.Pi*1.5 - float64(i)/30*math.Pi*1.2
		dots = append(dots, pt(qx+math.Cos(a)*60, qy-40+math.Sin(a)*48))
	}
	for i := range 8 {
		dots = append(dots, pt(qx, float64(qy+20+i*5)))
	}
	for _, d := range dots {
		c.glowDiscs(d.X, d.Y, 6, 0, 1, 1, palette.LightGold, palette.DeepPurple)
		c.disc(d.X, d.Y, 2, palette.WarmWhite)
	}
	c.glowDiscs(qx, qy+70, 8, 0, 1, 1, palette.LightGold, palette.DeepPurple)
	c.disc(qx, qy+70, 3, palette.WarmWhite)

	c.band(sh-60, sh, palette.DarkTeal, palette.NearBlack)
	c.stars(80, image.Rect(0, 0, sw, sh/2))
	c.bokeh(6, 15, 35)
}
