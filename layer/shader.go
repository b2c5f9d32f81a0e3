// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layer

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/label.wgsl
var labelShaderWGSL string

// Shader entry points in label.wgsl.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// UniformSize is the byte size of the shader uniform block.
const UniformSize = 16

// ShaderSource returns the WGSL source of the label shader.
func ShaderSource() string {
	return labelShaderWGSL
}

// CompileShader compiles the label shader to SPIR-V words.
func CompileShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(labelShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("layer: compile label shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
