// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// PointSegmentDistance returns the distance from p to the segment a-b.
func PointSegmentDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Norm()
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Mul(t))).Norm()
}

// SegmentsCross reports whether segments a1-a2 and b1-b2 share a point.
func SegmentsCross(a1, a2, b1, b2 r2.Point) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear or touching endpoints.
	return (d1 == 0 && onSegment(b1, b2, a1)) ||
		(d2 == 0 && onSegment(b1, b2, a2)) ||
		(d3 == 0 && onSegment(a1, a2, b1)) ||
		(d4 == 0 && onSegment(a1, a2, b2))
}

// SegmentDistance returns the shortest distance between segments a1-a2
// and b1-b2. Crossing segments are at distance 0.
func SegmentDistance(a1, a2, b1, b2 r2.Point) float64 {
	if SegmentsCross(a1, a2, b1, b2) {
		return 0
	}
	return math.Min(
		math.Min(PointSegmentDistance(a1, b1, b2), PointSegmentDistance(a2, b1, b2)),
		math.Min(PointSegmentDistance(b1, a1, a2), PointSegmentDistance(b2, a1, a2)),
	)
}

// orient returns the signed area of the triangle a, b, c.
func orient(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// onSegment reports whether p, known to be collinear with a-b, lies within
// the segment bounds.
func onSegment(a, b, p r2.Point) bool {
	return r2.RectFromPoints(a, b).ContainsPoint(p)
}
