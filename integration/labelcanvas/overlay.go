// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package labelcanvas

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"golang.org/x/image/vector"

	"github.com/gogpu/maplabel/layer"
)

// debugLineWidth is the stroke width of debug outlines in pixels.
const debugLineWidth = 1.0

// Overlay rasterizes label snapshots on the CPU. It draws each label as its
// halo and text box, which is enough to inspect placement without a glyph
// atlas, plus the debug outlines when present.
//
// An Overlay reuses its rasterizer between calls and is not safe for
// concurrent use.
type Overlay struct {
	raster *vector.Rasterizer
}

// NewOverlay creates an overlay renderer.
func NewOverlay() *Overlay {
	return &Overlay{raster: vector.NewRasterizer(0, 0)}
}

// Draw clears dst and renders s into it. The view center maps to the
// center of dst and the view bearing is applied. A nil snapshot leaves dst
// cleared.
func (o *Overlay) Draw(dst *image.RGBA, s *layer.Snapshot) {
	clear(dst.Pix)
	if s == nil {
		return
	}

	b := dst.Bounds()
	tr := screenTransform{
		center: r2.Point{X: float64(b.Dx()) / 2, Y: float64(b.Dy()) / 2},
	}
	tr.sin, tr.cos = math.Sincos(s.View.Bearing)

	for _, l := range s.Labels {
		st := l.Candidate.Style
		if st == nil {
			continue
		}
		halo := l.Box
		halo.HalfW += st.Stroke
		halo.HalfH += st.Stroke
		o.fill(dst, tr.apply4(halo.Corners()), st.Outline)
	}
	for _, l := range s.Labels {
		if st := l.Candidate.Style; st != nil {
			o.fill(dst, tr.apply4(l.Box.Corners()), st.Fill)
		}
	}
	for _, ln := range s.Debug {
		o.line(dst, tr.apply(ln.A), tr.apply(ln.B), ln.Color)
	}
}

// fill rasterizes a convex quad in a straight-alpha color.
func (o *Overlay) fill(dst *image.RGBA, pts [4]r2.Point, c color.RGBA) {
	b := dst.Bounds()
	o.raster.Reset(b.Dx(), b.Dy())
	o.raster.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		o.raster.LineTo(float32(p.X), float32(p.Y))
	}
	o.raster.ClosePath()
	o.raster.Draw(dst, b, image.NewUniform(color.NRGBA(c)), image.Point{})
}

// line rasterizes a segment as a thin quad.
func (o *Overlay) line(dst *image.RGBA, a, b r2.Point, c color.RGBA) {
	d := b.Sub(a)
	if d.Norm() == 0 {
		return
	}
	n := d.Normalize().Ortho().Mul(debugLineWidth / 2)
	o.fill(dst, [4]r2.Point{a.Sub(n), b.Sub(n), b.Add(n), a.Add(n)}, c)
}

// screenTransform maps view-centered coordinates to image pixels.
type screenTransform struct {
	center   r2.Point
	sin, cos float64
}

func (t screenTransform) apply(p r2.Point) r2.Point {
	return r2.Point{
		X: p.X*t.cos - p.Y*t.sin + t.center.X,
		Y: p.X*t.sin + p.Y*t.cos + t.center.Y,
	}
}

func (t screenTransform) apply4(pts [4]r2.Point) [4]r2.Point {
	for i := range pts {
		pts[i] = t.apply(pts[i])
	}
	return pts
}
