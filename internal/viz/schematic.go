package viz

import "math"

// DrawFrame draws a shear frame of the given number of stories, each floor
// shifted by its displacement. Displacements are scaled so that scale maps
// to a sixth of the canvas width.
func DrawFrame(c *Canvas, stories int, allX []float64, scale float64) {
	if stories < 1 {
		return
	}
	cw, ch := c.PixelSize()
	base := ch - 3
	storyH := (ch - 8) / stories
	if storyH < 4 {
		storyH = 4
	}
	bay := cw / 2
	x0 := (cw - bay) / 2
	maxShift := float64(cw) / 6

	shift := func(i int) int {
		if i < 0 || i >= len(allX) || scale <= 0 {
			return 0
		}
		s := allX[i] / scale * maxShift
		s = math.Max(-maxShift, math.Min(maxShift, s))
		return int(math.Round(s))
	}

	c.DrawLine(0, base, cw-1, base)
	for x := 0; x < cw; x += 4 {
		c.DrawLine(x, base+1, x+2, base+2)
	}

	prevY, prevShift := base, 0
	for i := 0; i < stories; i++ {
		y := base - (i+1)*storyH
		s := shift(i)

		c.DrawLine(x0+prevShift, prevY, x0+s, y)
		c.DrawLine(x0+bay+prevShift, prevY, x0+bay+s, y)
		c.DrawLine(x0+s, y, x0+bay+s, y)
		c.DrawLine(x0+s, y-1, x0+bay+s, y-1)
		c.FillBox(x0+bay/2+s, y-3, 1)

		prevY, prevShift = y, s
	}

	// undeformed floor levels
	ref := x0 + bay + int(maxShift) + 2
	for i := 0; i < stories; i++ {
		c.DashedHLine(ref, cw-1, base-(i+1)*storyH, 2)
	}
}
