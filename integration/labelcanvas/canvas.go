// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package labelcanvas

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/maplabel"
	"github.com/gogpu/maplabel/layer"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("labelcanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("labelcanvas: invalid dimensions")

	// ErrNilSource is returned when a nil Source is passed.
	ErrNilSource = errors.New("labelcanvas: nil Source")

	// ErrInvalidRenderer is returned when the drawer has no texture creator.
	ErrInvalidRenderer = errors.New("labelcanvas: drawer has no TextureCreator")
)

// Source supplies label snapshots on the render thread.
// *maplabel.Engine implements Source.
type Source interface {
	Update() (*layer.Snapshot, bool)
}

// textureDestroyer is the interface for destroying textures.
type textureDestroyer interface {
	Destroy()
}

// Canvas draws the label layer of a Source into a GPU texture.
//
// Every render tick swaps in the latest snapshot. The RGBA buffer and the
// texture are reused across snapshots; a new texture is created only after
// Resize.
//
// Canvas is NOT safe for concurrent use. It belongs to the render thread.
type Canvas struct {
	src         Source
	overlay     *Overlay
	img         *image.RGBA
	snap        *layer.Snapshot
	texture     gpucontext.Texture
	pending     *pendingTexture
	oldTexture  gpucontext.Texture
	dirty       bool
	sizeChanged bool
	closed      bool

	uploads  int
	creates  int
	redraws  int
	lastSwap uint64
}

// New creates a Canvas for src with the given size in pixels.
func New(src Source, width, height int) (*Canvas, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	return &Canvas{
		src:     src,
		overlay: NewOverlay(),
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		dirty:   true,
	}, nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int {
	return c.img.Rect.Dx()
}

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int {
	return c.img.Rect.Dy()
}

// Image returns the CPU-side label image. It is overwritten by the next
// Tick that swaps in a snapshot.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Snapshot returns the snapshot currently shown.
func (c *Canvas) Snapshot() *layer.Snapshot {
	return c.snap
}

// IsDirty returns true if the image has changes not uploaded yet.
func (c *Canvas) IsDirty() bool {
	return c.dirty
}

// Tick swaps in a newly published snapshot, if any, and redraws the image.
// It reports whether the image changed. Tick never blocks on a pass.
func (c *Canvas) Tick() (bool, error) {
	if c.closed {
		return false, ErrCanvasClosed
	}
	s, changed := c.src.Update()
	if !changed && !c.sizeChanged {
		return false, nil
	}
	if changed {
		c.snap = s
		c.lastSwap++
	}
	c.overlay.Draw(c.img, c.snap)
	c.redraws++
	c.dirty = true
	maplabel.Logger().Debug("labelcanvas: redrawn", "labels", c.snap.Len())
	return true, nil
}

// Resize changes the canvas dimensions. The image is redrawn from the
// current snapshot on the next Tick.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if c.Width() == width && c.Height() == height {
		return nil
	}

	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.sizeChanged = true
	c.dirty = true
	return nil
}

// Flush uploads the image to the GPU texture if dirty.
//
// The existing texture is updated in place through
// gpucontext.TextureUpdater. Before the first upload, and after a resize,
// creation is deferred to RenderTo, which has a TextureCreator.
func (c *Canvas) Flush() error {
	if c.closed {
		return ErrCanvasClosed
	}

	// The old texture may still be used by in-flight command buffers; it
	// is destroyed after the replacement has been written.
	if c.sizeChanged {
		if c.texture != nil {
			destroy(c.oldTexture)
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty {
		return nil
	}

	if c.texture == nil {
		c.pending = &pendingTexture{
			width:  c.Width(),
			height: c.Height(),
			data:   c.img.Pix,
		}
		c.dirty = false
		return nil
	}

	if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(c.img.Pix); err != nil {
			return fmt.Errorf("labelcanvas: texture update failed: %w", err)
		}
		c.uploads++
	}
	c.dirty = false
	return nil
}

// RenderTo swaps in the latest snapshot, uploads it and draws the label
// layer at (0, 0).
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if _, err := c.Tick(); err != nil {
		return err
	}
	if err := c.Flush(); err != nil {
		return err
	}

	if c.pending != nil {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		tex, err := creator.NewTextureFromRGBA(c.pending.width, c.pending.height, c.pending.data)
		if err != nil {
			return fmt.Errorf("labelcanvas: NewTextureFromRGBA failed: %w", err)
		}
		// image.RGBA is premultiplied.
		if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}
		c.texture = tex
		c.pending = nil
		c.creates++

		destroy(c.oldTexture)
		c.oldTexture = nil
	}

	if c.texture == nil {
		return nil
	}
	return dc.DrawTexture(c.texture, 0, 0)
}

// Texture returns the current GPU texture, or nil before the first
// RenderTo.
func (c *Canvas) Texture() gpucontext.Texture {
	return c.texture
}

// Stats reports texture activity, for diagnostics and tests.
type Stats struct {
	Swaps   uint64
	Redraws int
	Creates int
	Uploads int
	Labels  int
}

// Stats returns texture activity counters.
func (c *Canvas) Stats() Stats {
	return Stats{
		Swaps:   c.lastSwap,
		Redraws: c.redraws,
		Creates: c.creates,
		Uploads: c.uploads,
		Labels:  c.snap.Len(),
	}
}

// Close releases the textures. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	destroy(c.oldTexture)
	destroy(c.texture)
	c.oldTexture = nil
	c.texture = nil
	c.pending = nil
	c.snap = nil
	c.src = nil
	return nil
}

// pendingTexture holds the data for a texture that RenderTo creates once a
// TextureCreator is available.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
