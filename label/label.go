// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package label

import (
	"image/color"

	"github.com/golang/geo/r2"
)

// Kind identifies how a label is anchored on the map.
type Kind uint8

// Kind constants.
const (
	// KindWay is a label drawn along a line segment. Way labels are
	// constrained by the length of their path and carried over between
	// passes.
	KindWay Kind = iota

	// KindCaption is a point-anchored label such as a town name. Captions
	// are recomputed from scratch every pass.
	KindCaption
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindWay:
		return "Way"
	case KindCaption:
		return "Caption"
	default:
		return "Unknown"
	}
}

// Style describes how a label is drawn and how it competes with others.
//
// Styles are compared by identity: two candidates share a style only when
// they point at the same *Style value.
type Style struct {
	// Kind selects way-label or caption behavior.
	Kind Kind

	// Priority orders competing labels. Lower values are more important.
	Priority int

	// Height is the height of the text line box in pixels.
	Height float64

	// Stroke is the halo width drawn around the glyphs, in pixels.
	Stroke float64

	// Fill is the text color.
	Fill color.RGBA

	// Outline is the halo color.
	Outline color.RGBA
}

// IsCaption reports whether the style anchors labels at a point.
func (s *Style) IsCaption() bool {
	return s != nil && s.Kind == KindCaption
}

// Candidate is a label produced by the tile decoder. The engine never
// mutates a candidate.
//
// Geometry is expressed in tile pixels at the zoom level of the owning tile,
// relative to the tile's top-left corner.
type Candidate struct {
	// Text is the interned label string. Compared by identity.
	Text *Text

	// Style is the label style. Compared by identity.
	Style *Style

	// P1 and P2 are the path anchor endpoints for way labels.
	// Captions use P1 as their anchor point and ignore P2.
	P1, P2 r2.Point

	// Width is the precomputed text width in pixels.
	Width float64

	// Length is the path length in tile pixels. Zero for captions.
	Length float64
}

// Kind returns the anchoring kind of the candidate's style.
func (c *Candidate) Kind() Kind {
	if c.Style == nil {
		return KindWay
	}
	return c.Style.Kind
}

// SameLabel reports whether c and o carry the same text and style identity.
func (c *Candidate) SameLabel(o *Candidate) bool {
	return c.Text == o.Text && c.Style == o.Style
}

// Fits reports whether the text fits its path when the path is magnified by
// scale. The boundary is inclusive: a width exactly equal to the scaled
// length fits.
func (c *Candidate) Fits(scale float64) bool {
	return c.Width <= c.Length*scale
}
