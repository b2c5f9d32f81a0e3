// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package labelcanvas

import (
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/maplabel"
	"github.com/gogpu/maplabel/viewport"
)

// Controller is the part of *maplabel.Engine a gesture binding drives.
type Controller interface {
	View() viewport.View
	SetView(viewport.View)
	Hold(bool)
	RequestRelabel()
}

var _ Controller = (*maplabel.Engine)(nil)

// Gestures suspends relabeling while a multi-touch gesture is in progress
// and applies the gesture deltas to the view. When the gesture ends the
// engine is released and a relabel is requested.
//
// Gesture events come from a gpucontext.GestureEventSource; the end of a
// gesture is detected from pointer events when the source also implements
// gpucontext.PointerEventSource.
type Gestures struct {
	ctrl Controller

	mu      sync.Mutex
	active  map[int]struct{}
	holding bool
}

// BindGestures registers gesture and pointer callbacks on src. src should
// implement gpucontext.GestureEventSource and may implement
// gpucontext.PointerEventSource; other values are ignored.
func BindGestures(ctrl Controller, src any) *Gestures {
	g := &Gestures{
		ctrl:   ctrl,
		active: make(map[int]struct{}),
	}
	if ges, ok := src.(gpucontext.GestureEventSource); ok {
		ges.OnGesture(g.HandleGesture)
	}
	if ptr, ok := src.(gpucontext.PointerEventSource); ok {
		ptr.OnPointer(g.HandlePointer)
	}
	return g
}

// Holding reports whether a gesture currently holds the engine.
func (g *Gestures) Holding() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holding
}

// HandleGesture applies one frame of gesture deltas.
func (g *Gestures) HandleGesture(ev gpucontext.GestureEvent) {
	if ev.NumPointers < 2 {
		g.release()
		return
	}

	g.mu.Lock()
	start := !g.holding
	g.holding = true
	g.mu.Unlock()
	if start {
		g.ctrl.Hold(true)
		maplabel.Logger().Debug("labelcanvas: gesture started", "pointers", ev.NumPointers)
	}

	v := g.ctrl.View()
	v.Position = v.Position.
		ZoomBy(ev.ZoomDelta).
		Rotate(ev.RotationDelta).
		Pan(-ev.TranslationDelta.X, -ev.TranslationDelta.Y)
	g.ctrl.SetView(v)
}

// HandlePointer tracks active pointers to detect the end of a gesture.
func (g *Gestures) HandlePointer(ev gpucontext.PointerEvent) {
	g.mu.Lock()
	switch ev.Type {
	case gpucontext.PointerDown:
		g.active[ev.PointerID] = struct{}{}
	case gpucontext.PointerUp, gpucontext.PointerCancel:
		delete(g.active, ev.PointerID)
	}
	ended := g.holding && len(g.active) < 2
	g.mu.Unlock()

	if ended {
		g.release()
	}
}

// release ends a gesture hold, if any.
func (g *Gestures) release() {
	g.mu.Lock()
	was := g.holding
	g.holding = false
	g.mu.Unlock()

	if was {
		g.ctrl.Hold(false)
		g.ctrl.RequestRelabel()
		maplabel.Logger().Debug("labelcanvas: gesture ended")
	}
}
