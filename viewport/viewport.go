// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package viewport describes the map view that labels are placed for and
// projects tile-local geometry into screen space.
//
// Screen coordinates are relative to the view center, unrotated and
// already multiplied by the view scale. The renderer applies the view
// bearing when drawing.
package viewport

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileSize is the edge length of a tile in pixels at its own zoom level.
const TileSize = 256

// MaxZoom is the deepest zoom level a position may reference.
const MaxZoom = 30

// Position is the map position the view is centered on.
type Position struct {
	// X and Y are the web mercator coordinates of the center, as a fraction
	// of the world in [0, 1).
	X, Y float64

	// Zoom is the integer reference zoom level.
	Zoom int

	// Scale is the fractional magnification relative to Zoom, in [1, 2).
	Scale float64

	// Bearing is the view rotation in radians.
	Bearing float64
}

// FromLonLat creates a position centered on ll at a fractional zoom level.
func FromLonLat(ll orb.Point, zoom, bearing float64) Position {
	f := maptile.Fraction(ll, 0)
	z := math.Floor(zoom)
	z = math.Max(0, math.Min(z, MaxZoom))
	return Position{
		X:       f[0],
		Y:       f[1],
		Zoom:    int(z),
		Scale:   math.Exp2(math.Max(zoom-z, 0)),
		Bearing: bearing,
	}
}

// LonLat returns the geographic coordinates of the center.
func (p Position) LonLat() orb.Point {
	lon := p.X*360 - 180
	n := math.Pi - 2*math.Pi*p.Y
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return orb.Point{lon, lat}
}

// scale returns Scale, treating the zero value as 1.
func (p Position) scale() float64 {
	if p.Scale <= 0 {
		return 1
	}
	return p.Scale
}

// WorldSize returns the width of the world in pixels at the reference zoom.
func (p Position) WorldSize() float64 {
	return math.Ldexp(TileSize, p.Zoom)
}

// Origin returns the world-pixel position of the center at the reference zoom.
func (p Position) Origin() r2.Point {
	w := p.WorldSize()
	return r2.Point{X: p.X * w, Y: p.Y * w}
}

// Pan returns the position moved by dx, dy screen pixels.
func (p Position) Pan(dx, dy float64) Position {
	w := p.WorldSize() * p.scale()
	p.X = math.Mod(p.X+dx/w+1, 1)
	p.Y = math.Min(math.Max(p.Y+dy/w, 0), 1)
	return p
}

// ZoomBy returns the position magnified by factor, keeping Scale in [1, 2)
// and Zoom within [0, MaxZoom].
func (p Position) ZoomBy(factor float64) Position {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return p
	}
	frac, exp := math.Frexp(p.scale() * factor)
	// frac is in [0.5, 1): shift one octave into Scale.
	z := p.Zoom + exp - 1
	s := frac * 2
	switch {
	case z < 0:
		z, s = 0, 1
	case z > MaxZoom:
		z, s = MaxZoom, 1
	}
	p.Zoom, p.Scale = z, s
	return p
}

// Rotate returns the position turned by d radians, with Bearing kept in
// [0, 2π).
func (p Position) Rotate(d float64) Position {
	b := math.Mod(p.Bearing+d, 2*math.Pi)
	if b < 0 {
		b += 2 * math.Pi
	}
	p.Bearing = b
	return p
}

// View is a position together with the screen it is shown on.
type View struct {
	Position

	// Width and Height are the screen dimensions in pixels.
	Width, Height float64
}

// Radius returns the screen-space bounding radius of the view. The circle
// covers the screen under any rotation.
func (v View) Radius() float64 {
	return math.Hypot(v.Width, v.Height) / 2
}

// Contains reports whether a box centered at p with the given half-diagonal
// touches the bounding circle.
func (v View) Contains(p r2.Point, extent float64) bool {
	return p.Norm() <= v.Radius()+extent
}

// Equal reports whether two views would produce the same placement.
func (v View) Equal(o View) bool {
	return v.Position == o.Position && v.Width == o.Width && v.Height == o.Height
}

// Transform maps tile-local pixel coordinates into screen coordinates.
type Transform struct {
	// Offset is the screen position of the tile origin.
	Offset r2.Point

	// Factor converts tile pixels to screen pixels (2^ZoomDelta * Scale).
	Factor float64

	// ZoomDelta is the reference zoom minus the tile zoom.
	ZoomDelta int
}

// Apply projects a tile-local point.
func (t Transform) Apply(p r2.Point) r2.Point {
	return t.Offset.Add(p.Mul(t.Factor))
}

// TileTransform returns the projection for a tile. The tile origin is
// scaled from its own zoom to the reference zoom, shifted by the view
// origin and folded across the antimeridian before the view scale is
// applied.
func (v View) TileTransform(t maptile.Tile) Transform {
	dz := v.Zoom - int(t.Z)
	f := math.Ldexp(1, dz)
	origin := v.Origin()

	dx := float64(t.X)*TileSize*f - origin.X
	dy := float64(t.Y)*TileSize*f - origin.Y
	dx = WrapX(dx, v.WorldSize())

	s := v.scale()
	return Transform{
		Offset:    r2.Point{X: dx * s, Y: dy * s},
		Factor:    f * s,
		ZoomDelta: dz,
	}
}

// WrapX folds a horizontal world-pixel offset by one world width when it
// lies more than half a world away from the center.
func WrapX(dx, worldWidth float64) float64 {
	half := worldWidth / 2
	switch {
	case dx > half:
		return dx - worldWidth
	case dx < -half:
		return dx + worldWidth
	default:
		return dx
	}
}

// Tiles returns the tiles at the reference zoom that intersect the view's
// bounding circle. Columns wrap around the antimeridian; rows are clamped.
func (v View) Tiles() maptile.Tiles {
	n := 1 << uint(v.Zoom)
	origin := v.Origin()
	r := v.Radius() / v.scale()

	minX := int(math.Floor((origin.X - r) / TileSize))
	maxX := int(math.Floor((origin.X + r) / TileSize))
	minY := max(int(math.Floor((origin.Y-r)/TileSize)), 0)
	maxY := min(int(math.Floor((origin.Y+r)/TileSize)), n-1)

	if maxX-minX+1 > n {
		minX, maxX = 0, n-1
	}

	seen := make(maptile.Set)
	tiles := make(maptile.Tiles, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			wx := ((x % n) + n) % n
			t := maptile.New(uint32(wx), uint32(y), maptile.Zoom(v.Zoom))
			if seen[t] {
				continue
			}
			seen[t] = true
			tiles = append(tiles, t)
		}
	}
	return tiles
}
