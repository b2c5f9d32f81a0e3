// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package placement

import (
	"context"

	"github.com/gogpu/maplabel/internal/arena"
	"github.com/gogpu/maplabel/internal/geom"
	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/tile"
	"github.com/gogpu/maplabel/viewport"
)

// carryOver consumes the previous way labels. Survivors are reprojected
// into view and appended to the current list with their generation
// unchanged; everything else is released.
func (p *Placer) carryOver(ctx context.Context, view viewport.View, prev *arena.List) error {
	i := prev.Head()
	*prev = arena.NewList()

	for i != arena.Nil {
		next := p.arena.Next(i)
		if ctx.Err() != nil {
			p.releaseChain(i)
			return ErrCanceled
		}

		l := p.arena.Get(i)
		switch {
		case !p.reproject(view, l):
			p.record(l, OutcomeDropped)
			p.stats.Dropped++
			p.arena.Release(i)
		case p.resolveWay(l):
			p.arena.Append(&p.ways, i)
			p.stats.Carried++
		default:
			p.record(l, OutcomeRejected)
			p.stats.Rejected++
			p.arena.Release(i)
		}
		i = next
	}
	return nil
}

// reproject moves a carried label into view. It reports false when the
// label must be dropped.
func (p *Placer) reproject(view viewport.View, l *arena.Label) bool {
	if l.Tile.State() != tile.StateReady {
		return false
	}
	tr := view.TileTransform(l.Tile.ID())
	if tr.ZoomDelta > 1 || tr.ZoomDelta < -1 {
		return false
	}
	if !l.Candidate.Fits(tr.Factor) {
		return false
	}
	gen := l.Gen
	*l = projectWay(l.Tile, l.Candidate, tr)
	l.Gen = gen
	return view.Contains(l.Pos, l.Box.Extent())
}

// releaseChain releases a detached chain of labels starting at i.
func (p *Placer) releaseChain(i arena.Index) {
	for i != arena.Nil {
		next := p.arena.Next(i)
		p.arena.Release(i)
		i = next
	}
}

// collect walks the candidates of kind in every ready tile.
func (p *Placer) collect(ctx context.Context, view viewport.View, tiles []tile.Tile, kind label.Kind) error {
	for _, t := range tiles {
		if ctx.Err() != nil {
			return ErrCanceled
		}
		// A tile leaving the ready state mid-pass loses its candidates.
		if t.State() != tile.StateReady {
			continue
		}

		tr := view.TileTransform(t.ID())
		for _, c := range t.Candidates() {
			if c.Kind() != kind {
				continue
			}
			switch kind {
			case label.KindWay:
				p.placeWay(view, t, c, tr)
			case label.KindCaption:
				p.placeCaption(view, t, c, tr)
			}
		}
	}
	return nil
}

func (p *Placer) collectWays(ctx context.Context, view viewport.View, tiles []tile.Tile) error {
	return p.collect(ctx, view, tiles, label.KindWay)
}

func (p *Placer) collectCaptions(ctx context.Context, view viewport.View, tiles []tile.Tile) error {
	return p.collect(ctx, view, tiles, label.KindCaption)
}

// placeWay tests a way label candidate and appends it when accepted.
func (p *Placer) placeWay(view viewport.View, t tile.Tile, c *label.Candidate, tr viewport.Transform) {
	if !c.Fits(tr.Factor) {
		return
	}
	trial := projectWay(t, c, tr)
	if !view.Contains(trial.Pos, trial.Box.Extent()) {
		return
	}
	trial.Gen = p.pass

	if !p.resolveWay(&trial) {
		p.record(&trial, OutcomeRejected)
		p.stats.Rejected++
		return
	}
	p.accept(&p.ways, &trial)
}

// placeCaption tests a caption candidate and appends it when accepted.
func (p *Placer) placeCaption(view viewport.View, t tile.Tile, c *label.Candidate, tr viewport.Transform) {
	trial := projectCaption(t, c, tr, view.Bearing)
	if !view.Contains(trial.Pos, trial.Box.Extent()) {
		return
	}
	trial.Gen = p.pass

	if !p.resolveCaption(&trial) {
		p.record(&trial, OutcomeRejected)
		p.stats.Rejected++
		return
	}
	p.accept(&p.captions, &trial)
}

// accept copies trial into a new slot at the end of list.
func (p *Placer) accept(list *arena.List, trial *arena.Label) {
	i := p.arena.Alloc()
	*p.arena.Get(i) = *trial
	p.arena.Append(list, i)
	p.stats.Accepted++
}

// projectWay places a way label candidate on screen.
func projectWay(t tile.Tile, c *label.Candidate, tr viewport.Transform) arena.Label {
	p1, p2 := tr.Apply(c.P1), tr.Apply(c.P2)
	box := geom.NewWayBox(p1, p2, c.Width, styleHeight(c))
	return arena.Label{
		Candidate: c,
		Tile:      t,
		Pos:       box.Center,
		P1:        p1,
		P2:        p2,
		Box:       box,
	}
}

// projectCaption places a caption upright around its anchor.
func projectCaption(t tile.Tile, c *label.Candidate, tr viewport.Transform, bearing float64) arena.Label {
	pos := tr.Apply(c.P1)
	return arena.Label{
		Candidate: c,
		Tile:      t,
		Pos:       pos,
		P1:        pos,
		P2:        pos,
		Box:       geom.NewCaptionBox(pos, c.Width, styleHeight(c), bearing),
	}
}

func styleHeight(c *label.Candidate) float64 {
	if c.Style == nil {
		return 0
	}
	return c.Style.Height
}
