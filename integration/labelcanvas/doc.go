// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package labelcanvas connects a maplabel engine to a gogpu window.
//
// The data flow on the render thread is:
//
//	Engine.Update (swap) -> Overlay (CPU raster) -> GPU Texture -> Window
//
// # Usage
//
//	canvas, err := labelcanvas.New(engine, 800, 600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer canvas.Close()
//
//	labelcanvas.BindGestures(engine, app.EventSource())
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// The overlay draws label boxes and debug outlines; glyph rendering with
// the layer shader is left to the host renderer.
//
// # Thread Safety
//
// Canvas is not safe for concurrent use and belongs to the render thread.
// Gestures may be driven from the UI thread.
package labelcanvas
