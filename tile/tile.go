// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tile defines the contract between the label engine and the tile
// pipeline, and provides Store, an in-memory tile cache that honours the
// pins taken while labels are being placed.
package tile

import (
	"errors"
	"sync/atomic"

	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/viewport"
)

// ErrClosed is returned by a Manager that no longer serves tiles.
var ErrClosed = errors.New("tile: manager is closed")

// State is the lifecycle state of a tile.
type State uint32

// State constants.
const (
	// StateNone is a tile that has not been requested.
	StateNone State = iota

	// StateLoading is a tile whose data is being fetched or decoded.
	StateLoading

	// StateReady is a decoded tile whose candidates may be used.
	StateReady

	// StateEvicted is a tile that was dropped from the cache.
	StateEvicted
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StateEvicted:
		return "Evicted"
	default:
		return "Unknown"
	}
}

// Tile is a decoded map tile as seen by the label engine.
type Tile interface {
	// ID returns the tile coordinates.
	ID() maptile.Tile

	// State returns the current lifecycle state. Candidates may only be
	// used while the state is StateReady.
	State() State

	// Candidates returns the label candidates of the tile in decoder order.
	// The slice and the candidates must not be modified.
	Candidates() []*label.Candidate
}

// Manager supplies the visible tile set for a placement pass.
type Manager interface {
	// VisibleTiles returns the ready tiles inside the view's bounding
	// radius. Every returned tile is pinned so the cache cannot evict it
	// until ReleaseTiles is called with the same slice.
	VisibleTiles(v viewport.View) ([]Tile, error)

	// ReleaseTiles unpins tiles returned by VisibleTiles.
	ReleaseTiles(tiles []Tile)
}

// Data is a concrete Tile holding decoded candidates in memory.
//
// Data is safe for concurrent use: the state is updated atomically and
// the candidates are never modified after creation.
type Data struct {
	id         maptile.Tile
	state      atomic.Uint32
	candidates []*label.Candidate
}

// NewData creates a ready tile with the given candidates.
func NewData(id maptile.Tile, candidates []*label.Candidate) *Data {
	d := &Data{id: id, candidates: candidates}
	d.state.Store(uint32(StateReady))
	return d
}

// ID returns the tile coordinates.
func (d *Data) ID() maptile.Tile {
	return d.id
}

// State returns the lifecycle state.
func (d *Data) State() State {
	return State(d.state.Load())
}

// SetState changes the lifecycle state.
func (d *Data) SetState(s State) {
	d.state.Store(uint32(s))
}

// Candidates returns the decoded label candidates.
func (d *Data) Candidates() []*label.Candidate {
	return d.candidates
}

var _ Tile = (*Data)(nil)
