// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layer

import (
	"encoding/binary"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/golang/geo/r2"
)

// Vertex attribute formats, matching VertexInput in label.wgsl.
const (
	positionFormat = gputypes.VertexFormatFloat32x2
	uvFormat       = gputypes.VertexFormatFloat32x2
	colorFormat    = gputypes.VertexFormatUnorm8x4
)

// VertexStride is the size of one vertex in bytes.
var VertexStride = positionFormat.Size() + uvFormat.Size() + colorFormat.Size()

// VertexLayout returns the vertex buffer layout of Snapshot.Vertices.
//
//	location 0: position (vec2<f32>)
//	location 1: uv (vec2<f32>)
//	location 2: color (unorm8x4)
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: positionFormat, Offset: 0, ShaderLocation: 0},
				{Format: uvFormat, Offset: positionFormat.Size(), ShaderLocation: 1},
				{Format: colorFormat, Offset: positionFormat.Size() + uvFormat.Size(), ShaderLocation: 2},
			},
		},
	}
}

// IndexFormat is the format of Snapshot.Indices.
const IndexFormat = gputypes.IndexFormatUint32

// quadUV are the texture coordinates of the four quad corners.
var quadUV = [4]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// appendQuad appends the four vertices of a quad.
func appendQuad(buf []byte, corners [4]r2.Point, c color.RGBA) []byte {
	var v [32]byte
	stride := int(VertexStride)
	for i, p := range corners {
		writeVertex(v[:stride], p, quadUV[i], c)
		buf = append(buf, v[:stride]...)
	}
	return buf
}

// writeVertex writes a single vertex into buf.
func writeVertex(buf []byte, p, uv r2.Point, c color.RGBA) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(p.X)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(p.Y)))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(float32(uv.X)))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(float32(uv.Y)))
	buf[16], buf[17], buf[18], buf[19] = c.R, c.G, c.B, c.A
}

// quadIndices returns two triangles per quad: 0,1,2 and 2,3,0.
func quadIndices(numQuads int) []uint32 {
	indices := make([]uint32, numQuads*6)
	for i := range numQuads {
		base := i * 6
		vertex := uint32(i * 4) //nolint:gosec // label counts are bounded by tile content

		indices[base+0] = vertex + 0
		indices[base+1] = vertex + 1
		indices[base+2] = vertex + 2
		indices[base+3] = vertex + 2
		indices[base+4] = vertex + 3
		indices[base+5] = vertex + 0
	}
	return indices
}
