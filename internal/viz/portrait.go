package viz

// DrawPortrait plots a displacement/velocity trajectory on c, centred on the
// origin and scaled so the peaks xMax and vMax touch the border. The x = 0
// and v = 0 axes are dashed.
func DrawPortrait(c *Canvas, xs, vs []float64, xMax, vMax float64) {
	pw, ph := c.PixelSize()
	if pw < 2 || ph < 2 || xMax <= 0 || vMax <= 0 {
		return
	}
	cx, cy := (pw-1)/2, (ph-1)/2
	c.DashedHLine(0, pw-1, cy, 2)
	for y := 0; y < ph; y += 4 {
		c.Set(cx, y)
		c.Set(cx, y+1)
	}

	n := min(len(xs), len(vs))
	px := func(x float64) int { return cx + int(x/xMax*float64(cx)) }
	py := func(v float64) int { return cy - int(v/vMax*float64(cy)) }
	for i := 0; i < n; i++ {
		if i == 0 {
			c.Set(px(xs[0]), py(vs[0]))
			continue
		}
		c.DrawLine(px(xs[i-1]), py(vs[i-1]), px(xs[i]), py(vs[i]))
	}
}
