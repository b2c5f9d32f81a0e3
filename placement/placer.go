// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package placement selects and positions map labels for a view.
//
// A Placer runs one pass at a time over the visible tiles:
//
//  1. way labels accepted by the previous pass are reprojected into the new
//     view and kept where they still fit and do not collide,
//  2. way label candidates of every tile are projected and resolved against
//     the labels accepted so far,
//  3. captions are projected and resolved against each other.
//
// Captions never compete with way labels. Accepted way labels keep the pass
// number in which they first appeared, and older labels win ties, so the
// result is stable while the view moves.
//
// A Placer is not safe for concurrent use.
package placement

import (
	"context"
	"errors"

	"github.com/gogpu/maplabel/internal/arena"
	"github.com/gogpu/maplabel/tile"
	"github.com/gogpu/maplabel/viewport"
)

// Errors returned by Run.
var (
	// ErrCanceled is returned when the context is canceled mid-pass. The
	// placer releases everything the pass held.
	ErrCanceled = errors.New("placement: pass canceled")

	// ErrNoTiles is returned for an empty tile set. The placer state is
	// left untouched.
	ErrNoTiles = errors.New("placement: no visible tiles")
)

// DefaultPadding is the margin in pixels used when Config.Padding is zero.
const DefaultPadding = 4

// Config configures a Placer.
type Config struct {
	// Padding is the margin added around label boxes for the rough overlap
	// test, and the distance within which two pieces of the same label are
	// merged. Zero selects DefaultPadding.
	Padding float64

	// Capacity is the initial number of label slots.
	Capacity int

	// Debug records every examined box in Frame.Debug.
	Debug bool
}

// Placer holds the labels of the last pass and places the next one.
type Placer struct {
	arena    *arena.Arena
	ways     arena.List
	captions arena.List

	pass    uint64
	padding float64
	debug   bool

	stats   Stats
	records []Record
}

// New creates a placer.
func New(cfg Config) *Placer {
	pad := cfg.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	return &Placer{
		arena:    arena.New(cfg.Capacity),
		ways:     arena.NewList(),
		captions: arena.NewList(),
		padding:  pad,
		debug:    cfg.Debug,
	}
}

// SetDebug toggles debug records for following passes.
func (p *Placer) SetDebug(on bool) {
	p.debug = on
}

// Pass returns the number of the last started pass.
func (p *Placer) Pass() uint64 {
	return p.pass
}

// Live returns the number of labels the placer holds.
func (p *Placer) Live() int {
	return p.arena.Live()
}

// Reset releases every label, including any left unlinked by a pass that
// panicked. Pass numbering continues so generations stay monotonic.
func (p *Placer) Reset() {
	p.arena.Reset()
	p.ways = arena.NewList()
	p.captions = arena.NewList()
	p.records = nil
}

// Run places labels for view using the candidates of tiles.
//
// The tiles must stay pinned until Run returns; Run does not keep
// references to them beyond the labels it accepts. On error no frame is
// produced. ErrNoTiles, and a context canceled before the pass starts,
// leave the placer untouched; cancellation mid-pass leaves it empty.
func (p *Placer) Run(ctx context.Context, view viewport.View, tiles []tile.Tile) (*Frame, error) {
	if len(tiles) == 0 {
		return nil, ErrNoTiles
	}
	if ctx.Err() != nil {
		return nil, ErrCanceled
	}

	p.pass++
	p.stats = Stats{Pass: p.pass, Tiles: len(tiles)}
	p.records = p.records[:0]

	p.arena.ReleaseList(&p.captions)
	prev := p.ways.Take()

	if err := p.carryOver(ctx, view, &prev); err != nil {
		p.Reset()
		return nil, err
	}
	if err := p.collectWays(ctx, view, tiles); err != nil {
		p.Reset()
		return nil, err
	}
	if err := p.collectCaptions(ctx, view, tiles); err != nil {
		p.Reset()
		return nil, err
	}

	f := p.frame(view)
	p.arena.Scrub()
	slogger().Debug("placement: pass done", "stats", f.Stats)
	return f, nil
}

// frame copies the accepted labels out of the arena.
func (p *Placer) frame(view viewport.View) *Frame {
	p.stats.Ways = p.ways.Len()
	p.stats.Captions = p.captions.Len()

	f := &Frame{
		View:   view,
		Labels: make([]Placed, 0, p.ways.Len()+p.captions.Len()),
		Stats:  p.stats,
	}
	for _, l := range []*arena.List{&p.ways, &p.captions} {
		for i := l.Head(); i != arena.Nil; i = p.arena.Next(i) {
			pl := p.arena.Get(i)
			f.Labels = append(f.Labels, Placed{
				Candidate: pl.Candidate,
				Tile:      pl.Tile.ID(),
				Pos:       pl.Pos,
				P1:        pl.P1,
				P2:        pl.P2,
				Box:       pl.Box,
				Gen:       pl.Gen,
			})
			p.record(pl, OutcomeAccepted)
		}
	}
	if p.debug {
		f.Debug = append([]Record(nil), p.records...)
	}
	return f
}

// record notes the outcome of a box when debugging.
func (p *Placer) record(l *arena.Label, o Outcome) {
	if !p.debug {
		return
	}
	p.records = append(p.records, Record{
		Box:     l.Box,
		Kind:    l.Candidate.Kind(),
		Outcome: o,
	})
}
