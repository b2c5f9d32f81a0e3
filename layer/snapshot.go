// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package layer turns a finished placement into an immutable snapshot the
// render thread can upload and draw.
//
// Each label contributes a halo quad and a text quad. All halo quads come
// first in the buffers so one indexed draw renders every halo below every
// text box.
package layer

import (
	"encoding/binary"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/golang/geo/r2"

	"github.com/gogpu/maplabel/internal/geom"
	"github.com/gogpu/maplabel/placement"
	"github.com/gogpu/maplabel/viewport"
)

// Line is a debug overlay segment in screen space.
type Line struct {
	A, B  r2.Point
	Color color.RGBA
}

// Debug overlay colors by outcome.
var (
	ColorAccepted = color.RGBA{R: 0x20, G: 0xc0, B: 0x40, A: 0xff}
	ColorRejected = color.RGBA{R: 0xe0, G: 0x30, B: 0x30, A: 0xff}
	ColorEvicted  = color.RGBA{R: 0xf0, G: 0xa0, B: 0x20, A: 0xff}
	ColorDropped  = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
)

// OutcomeColor returns the debug color of an outcome.
func OutcomeColor(o placement.Outcome) color.RGBA {
	switch o {
	case placement.OutcomeAccepted:
		return ColorAccepted
	case placement.OutcomeRejected:
		return ColorRejected
	case placement.OutcomeEvicted:
		return ColorEvicted
	default:
		return ColorDropped
	}
}

// Snapshot is a renderer-owned label layer. It is never modified after
// Build returns it and may be shared between goroutines.
type Snapshot struct {
	// Epoch identifies the tile source generation the snapshot was built
	// for. It changes when the engine is cleared.
	Epoch uint64

	View   viewport.View
	Labels []placement.Placed

	// Vertices holds interleaved vertex data described by VertexLayout.
	Vertices []byte

	// Indices holds two triangles per quad. The first HaloIndices entries
	// draw halos, the rest draw text boxes.
	Indices     []uint32
	HaloIndices int

	// Debug holds box outlines when debugging was enabled for the pass.
	Debug []Line

	Stats placement.Stats
}

// Build converts a frame into a snapshot.
func Build(f *placement.Frame, epoch uint64) *Snapshot {
	n := len(f.Labels)
	s := &Snapshot{
		Epoch:       epoch,
		View:        f.View,
		Labels:      f.Labels,
		Vertices:    make([]byte, 0, 2*n*4*int(VertexStride)),
		Indices:     quadIndices(2 * n),
		HaloIndices: 6 * n,
		Stats:       f.Stats,
	}

	for _, l := range f.Labels {
		st := l.Candidate.Style
		box := l.Box
		var outline color.RGBA
		if st != nil {
			box.HalfW += st.Stroke
			box.HalfH += st.Stroke
			outline = st.Outline
		}
		s.Vertices = appendQuad(s.Vertices, box.Corners(), outline)
	}
	for _, l := range f.Labels {
		var fill color.RGBA
		if st := l.Candidate.Style; st != nil {
			fill = st.Fill
		}
		s.Vertices = appendQuad(s.Vertices, l.Box.Corners(), fill)
	}

	if len(f.Debug) > 0 {
		s.Debug = make([]Line, 0, 4*len(f.Debug))
		for _, r := range f.Debug {
			s.Debug = appendOutline(s.Debug, r.Box, OutcomeColor(r.Outcome))
		}
	}
	return s
}

// appendOutline appends the four edges of a box.
func appendOutline(lines []Line, b geom.OBB, c color.RGBA) []Line {
	pts := b.Corners()
	for i := range pts {
		lines = append(lines, Line{A: pts[i], B: pts[(i+1)%4], Color: c})
	}
	return lines
}

// Len returns the number of labels.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Labels)
}

// VertexBufferDescriptor describes a GPU buffer sized for the vertices.
func (s *Snapshot) VertexBufferDescriptor() gputypes.BufferDescriptor {
	return gputypes.BufferDescriptor{
		Label: "maplabel vertices",
		Size:  uint64(len(s.Vertices)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	}
}

// IndexBufferDescriptor describes a GPU buffer sized for the indices.
func (s *Snapshot) IndexBufferDescriptor() gputypes.BufferDescriptor {
	return gputypes.BufferDescriptor{
		Label: "maplabel indices",
		Size:  uint64(len(s.Indices)) * uint64(IndexFormat.Size()),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	}
}

// Uniforms returns the shader uniform block for a target of the given size.
func (s *Snapshot) Uniforms(width, height float32) [UniformSize / 4]float32 {
	sin, cos := math.Sincos(s.View.Bearing)
	return [UniformSize / 4]float32{width, height, float32(cos), float32(sin)}
}

// IndexBytes serializes the indices for GPU upload.
func (s *Snapshot) IndexBytes() []byte {
	data := make([]byte, len(s.Indices)*4)
	for i, idx := range s.Indices {
		binary.LittleEndian.PutUint32(data[i*4:], idx)
	}
	return data
}
