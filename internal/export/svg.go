// Package export renders stored runs as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/grabsim/internal/sim"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// point is a top-down position: world X across, world Z up the image.
type point struct{ X, Y float64 }

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b *bounds) add(p point) {
	if p.X < b.minX {
		b.minX = p.X
	}
	if p.X > b.maxX {
		b.maxX = p.X
	}
	if p.Y < b.minY {
		b.minY = p.Y
	}
	if p.Y > b.maxY {
		b.maxY = p.Y
	}
}

// pad widens the bounds by 10% on every side.
func (b *bounds) pad() {
	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
}

// TrajectorySVG draws a top-down view of each body's path in sample order,
// marking where each release happened. Returns "" without samples.
func TrajectorySVG(samples []sim.Sample, releases []sim.ReleaseEvent, width, height int) string {
	if len(samples) == 0 {
		return ""
	}

	var order []string
	paths := make(map[string][]point)
	names := make(map[string]string)
	first := point{samples[0].Position[0], samples[0].Position[2]}
	b := bounds{first.X, first.X, first.Y, first.Y}
	for _, s := range samples {
		p := point{s.Position[0], s.Position[2]}
		if _, ok := paths[s.ID]; !ok {
			order = append(order, s.ID)
			names[s.ID] = s.Body
		}
		paths[s.ID] = append(paths[s.ID], p)
		b.add(p)
	}
	b.pad()
	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY

	project := func(p point) (float64, float64) {
		x := (p.X - b.minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-b.minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	colors := make(map[string]string, len(order))
	for i, id := range order {
		color := palette[i%len(palette)]
		colors[id] = color
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" data-body="%s" d="M`, color, names[id]))
		for j, p := range paths[id] {
			x, y := project(p)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	for _, r := range releases {
		p, ok := positionAt(samples, r.Body, r.Time)
		if !ok {
			continue
		}
		x, y := project(p)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="none" stroke="%s" data-driver="%s"/>
`, x, y, colors[r.Body], r.Driver))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// positionAt returns the body's first sampled position at or after t.
func positionAt(samples []sim.Sample, id string, t float64) (point, bool) {
	for _, s := range samples {
		if s.ID == id && s.Time >= t-1e-9 {
			return point{s.Position[0], s.Position[2]}, true
		}
	}
	return point{}, false
}
