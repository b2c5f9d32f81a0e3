// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package geom provides the oriented boxes and segment tests used to detect
// overlapping labels.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// OBB is an oriented bounding box: a rectangle centered at Center whose
// local x axis points along U. V is U rotated by 90 degrees.
type OBB struct {
	Center r2.Point
	U, V   r2.Point

	// HalfW and HalfH are the half extents along U and V.
	HalfW, HalfH float64
}

// NewWayBox returns the box of a label of the given width and height laid
// along the segment p1-p2, centered on the segment midpoint.
// A degenerate segment yields an axis-aligned box.
func NewWayBox(p1, p2 r2.Point, width, height float64) OBB {
	dir := p2.Sub(p1)
	u := r2.Point{X: 1}
	if n := dir.Norm(); n > 0 {
		u = dir.Mul(1 / n)
	}
	return OBB{
		Center: p1.Add(p2).Mul(0.5),
		U:      u,
		V:      u.Ortho(),
		HalfW:  width / 2,
		HalfH:  height / 2,
	}
}

// NewCaptionBox returns the box of a caption of the given size anchored at
// center. The caption stays upright on screen, so its axis is the screen
// x axis counter-rotated by the view bearing.
func NewCaptionBox(center r2.Point, width, height, bearing float64) OBB {
	sin, cos := math.Sincos(bearing)
	u := r2.Point{X: cos, Y: -sin}
	return OBB{
		Center: center,
		U:      u,
		V:      u.Ortho(),
		HalfW:  width / 2,
		HalfH:  height / 2,
	}
}

// Extent returns the half diagonal of the box.
func (b OBB) Extent() float64 {
	return math.Hypot(b.HalfW, b.HalfH)
}

// Corners returns the four corners in winding order.
func (b OBB) Corners() [4]r2.Point {
	u := b.U.Mul(b.HalfW)
	v := b.V.Mul(b.HalfH)
	return [4]r2.Point{
		b.Center.Sub(u).Sub(v),
		b.Center.Add(u).Sub(v),
		b.Center.Add(u).Add(v),
		b.Center.Sub(u).Add(v),
	}
}

// AABB returns the axis-aligned rectangle enclosing the box.
func (b OBB) AABB() r2.Rect {
	ex := b.HalfW*math.Abs(b.U.X) + b.HalfH*math.Abs(b.V.X)
	ey := b.HalfW*math.Abs(b.U.Y) + b.HalfH*math.Abs(b.V.Y)
	return r2.RectFromCenterSize(b.Center, r2.Point{X: 2 * ex, Y: 2 * ey})
}

// Translate returns the box moved by d.
func (b OBB) Translate(d r2.Point) OBB {
	b.Center = b.Center.Add(d)
	return b
}

// radius returns the projection radius of the box onto axis.
func (b OBB) radius(axis r2.Point) float64 {
	return b.HalfW*math.Abs(b.U.Dot(axis)) + b.HalfH*math.Abs(b.V.Dot(axis))
}

// Intersects reports whether the two boxes overlap, using the separating
// axis theorem on the four box axes. Boxes that only touch do not
// intersect.
func (b OBB) Intersects(o OBB) bool {
	d := o.Center.Sub(b.Center)
	for _, axis := range [4]r2.Point{b.U, b.V, o.U, o.V} {
		if math.Abs(d.Dot(axis)) >= b.radius(axis)+o.radius(axis) {
			return false
		}
	}
	return true
}

// RoughOverlap reports whether the padded axis-aligned bounds of the boxes
// overlap. It never returns false for boxes that Intersects accepts.
func RoughOverlap(a, b OBB, padding float64) bool {
	return a.AABB().ExpandedByMargin(padding).Intersects(b.AABB().ExpandedByMargin(padding))
}
