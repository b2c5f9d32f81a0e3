// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package placement

import (
	"log/slog"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/maplabel/internal/geom"
	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/viewport"
)

// Outcome is the fate of a box examined during a pass.
type Outcome uint8

// Outcome constants.
const (
	// OutcomeAccepted is a label present in the finished frame.
	OutcomeAccepted Outcome = iota

	// OutcomeRejected is a candidate that lost a collision.
	OutcomeRejected

	// OutcomeEvicted is a label removed by a stronger candidate.
	OutcomeEvicted

	// OutcomeDropped is a carried label that no longer fits, left the view,
	// or lost its tile.
	OutcomeDropped
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "Accepted"
	case OutcomeRejected:
		return "Rejected"
	case OutcomeEvicted:
		return "Evicted"
	case OutcomeDropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

// Record is one box examined during a pass, kept when debugging is on.
type Record struct {
	Box     geom.OBB
	Kind    label.Kind
	Outcome Outcome
}

// Placed is an accepted label, copied out of the placer's working set.
type Placed struct {
	Candidate *label.Candidate
	Tile      maptile.Tile

	// Pos is the screen position of the label center.
	Pos r2.Point

	// P1 and P2 are the screen path endpoints. Captions have P1 == P2 == Pos.
	P1, P2 r2.Point

	Box geom.OBB

	// Gen is the pass in which the label was first accepted.
	Gen uint64
}

// Stats counts what happened during a pass.
type Stats struct {
	Pass  uint64
	Tiles int

	// Carried is the number of previous labels kept.
	Carried int
	// Dropped is the number of previous labels discarded before resolution.
	Dropped int
	// Accepted is the number of new labels accepted.
	Accepted int
	// Rejected is the number of labels that lost a collision.
	Rejected int
	// Evicted is the number of accepted labels removed later in the pass.
	Evicted int

	Ways     int
	Captions int
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("pass", s.Pass),
		slog.Int("tiles", s.Tiles),
		slog.Int("carried", s.Carried),
		slog.Int("dropped", s.Dropped),
		slog.Int("accepted", s.Accepted),
		slog.Int("rejected", s.Rejected),
		slog.Int("evicted", s.Evicted),
		slog.Int("ways", s.Ways),
		slog.Int("captions", s.Captions),
	)
}

// Frame is the result of a completed pass. A Frame is never modified after
// Run returns it.
type Frame struct {
	View viewport.View

	// Labels holds way labels in placement order followed by captions.
	Labels []Placed

	// Debug holds every examined box when debugging is enabled.
	Debug []Record

	Stats Stats
}

// Ways returns the way labels of the frame.
func (f *Frame) Ways() []Placed {
	return f.Labels[:f.Stats.Ways]
}

// Captions returns the captions of the frame.
func (f *Frame) Captions() []Placed {
	return f.Labels[f.Stats.Ways:]
}
