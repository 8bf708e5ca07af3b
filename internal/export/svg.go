// Package export renders frames and recorded responses as SVG.
package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/viz"
)

const (
	background = "#0a0a0a"
	foreground = "#7fb2ff"
)

// braille dot bits by sub-pixel row and column
var dots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasToSVG draws every lit braille dot of canvas as a circle. scale is
// the size of one sub-pixel in SVG units.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	pw, ph := canvas.PixelSize()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, foreground)

	r := scale * 0.4
	for row, line := range canvas.Grid {
		for col, ch := range line {
			pattern := ch - 0x2800
			if pattern <= 0 {
				continue
			}
			for dy := range dots {
				for dx := range dots[dy] {
					if pattern&dots[dy][dx] == 0 {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesToSVG plots one quantity of a recorded mode against normalized time
// as a polyline, with a zero line.
func SeriesToSVG(points []series.Point, q viz.Quantity, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}
	if stroke == "" {
		stroke = foreground
	}

	minT, maxT := points[0].T, points[len(points)-1].T
	peak := 0.0
	for _, p := range points {
		peak = math.Max(peak, math.Abs(q.Value(p)))
	}
	if peak == 0 {
		peak = 1
	}
	spanT := maxT - minT
	if spanT <= 0 {
		spanT = 1
	}
	peak *= 1.1

	fw, fh := float64(width), float64(height)
	px := func(t float64) float64 { return (t - minT) / spanT * fw }
	py := func(v float64) float64 { return fh/2 - v/peak*fh/2 }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444444" stroke-dasharray="4 4"/>
<text x="4" y="14" fill="#888888" font-family="monospace" font-size="12">%s peak %.3e</text>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, fh/2, width, fh/2, q, peak/1.1, stroke)

	for i, p := range points {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", px(p.T), py(q.Value(p)))
	}

	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}

// WriteFile writes svg to path.
func WriteFile(path, svg string) error {
	if svg == "" {
		return fmt.Errorf("export: nothing to draw")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
