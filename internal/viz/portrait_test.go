package viz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawPortraitCircle(t *testing.T) {
	xs := make([]float64, 100)
	vs := make([]float64, 100)
	for i := range xs {
		th := 2 * math.Pi * float64(i) / 99
		xs[i], vs[i] = math.Cos(th), -math.Sin(th)
	}

	c := NewCanvas(20, 10)
	DrawPortrait(c, xs, vs, 1, 1)

	pw, ph := c.PixelSize()
	lit := func(x, y int) bool {
		dot := [4][2]rune{{0x01, 0x08}, {0x02, 0x10}, {0x04, 0x20}, {0x40, 0x80}}
		return c.Grid[y/4][x/2]&dot[y%4][x%2] != 0
	}
	cx, cy := (pw-1)/2, (ph-1)/2
	// x = 1, v = 0 lands on the right of the origin, off the dashes
	assert.True(t, lit(2*cx, cy))
	assert.True(t, lit(cx, 0))
	// corners stay dark
	assert.False(t, lit(0, 0))
	assert.False(t, lit(pw-1, ph-1))
}

func TestDrawPortraitIgnoresBadScale(t *testing.T) {
	c := NewCanvas(4, 2)
	DrawPortrait(c, []float64{1}, []float64{1}, 0, 1)
	assert.Equal(t, NewCanvas(4, 2).String(), c.String())
}
