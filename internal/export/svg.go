package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Orbit is one body's path in the plane.
type Orbit struct {
	Name   string
	Points []r2.Vec
}

var palette = []string{"#00ffff", "#ff00ff", "#00ff88", "#ffcc00", "#ff4444", "#8888ff"}

// OrbitsToSVG draws every orbit on one canvas with a shared, aspect-preserving
// scale and marks each body's final position. Non-finite points break the
// path. It returns an error if no orbit has a finite point.
func OrbitsToSVG(w io.Writer, orbits []Orbit, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("svg: invalid size %dx%d", width, height)
	}

	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, o := range orbits {
		for _, p := range o.Points {
			if !finite(p) {
				continue
			}
			lo = r2.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y)}
			hi = r2.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y)}
		}
	}
	if math.IsInf(lo.X, 1) {
		return fmt.Errorf("svg: no finite points to draw")
	}

	// Pad by 10% and keep one unit per axis so circles stay circles.
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	center := r2.Scale(0.5, r2.Add(lo, hi))
	scale := math.Min(float64(width), float64(height)) / span
	toCanvas := func(p r2.Vec) (float64, float64) {
		d := r2.Sub(p, center)
		return float64(width)/2 + d.X*scale, float64(height)/2 - d.Y*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, o := range orbits {
		color := palette[i%len(palette)]

		var path strings.Builder
		move := true
		var last r2.Vec
		drawn := false
		for _, p := range o.Points {
			if !finite(p) {
				move = true
				continue
			}
			x, y := toCanvas(p)
			if move {
				fmt.Fprintf(&path, "M%.1f,%.1f", x, y)
				move = false
			} else {
				fmt.Fprintf(&path, " L%.1f,%.1f", x, y)
			}
			last, drawn = p, true
		}
		if !drawn {
			continue
		}

		fmt.Fprintf(&sb, "<g id=%q>\n", o.Name)
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"%s\"/>\n", color, path.String())
		x, y := toCanvas(last)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\"/>\n", x, y, color)
		fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n", x+6, y-6, color, o.Name)
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// OrbitsFromStates splits states laid out as [x1,y1..xn,yn, ...] into one
// orbit per name.
func OrbitsFromStates(names []string, states [][]float64) []Orbit {
	orbits := make([]Orbit, len(names))
	for k, name := range names {
		pts := make([]r2.Vec, 0, len(states))
		for _, s := range states {
			if 2*k+1 < len(s) {
				pts = append(pts, r2.Vec{X: s[2*k], Y: s[2*k+1]})
			}
		}
		orbits[k] = Orbit{Name: name, Points: pts}
	}
	return orbits
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
