// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package placement

import (
	"github.com/gogpu/maplabel/internal/arena"
	"github.com/gogpu/maplabel/internal/geom"
)

// resolveWay tests c against the accepted way labels. Labels that c beats
// are evicted; the result reports whether c may be accepted.
//
// For every accepted label e whose padded bounds overlap c:
//   - pieces of the same label closer than the padding are merged: the
//     older one wins, then the longer one, then e;
//   - otherwise, if the boxes intersect, e wins when it is not newer than
//     c, and c may evict a newer e that is not a caption and either has
//     lower importance or a shorter path.
func (p *Placer) resolveWay(c *arena.Label) bool {
	prev := arena.Nil
	for i := p.ways.Head(); i != arena.Nil; {
		e := p.arena.Get(i)

		if !geom.RoughOverlap(e.Box, c.Box, p.padding) {
			prev, i = i, p.arena.Next(i)
			continue
		}

		if p.duplicates(e, c) {
			if !replacesDuplicate(c, e) {
				return false
			}
			i = p.evict(&p.ways, prev, i)
			continue
		}

		if !e.Box.Intersects(c.Box) {
			prev, i = i, p.arena.Next(i)
			continue
		}

		if e.Gen <= c.Gen {
			return false
		}
		if !e.IsCaption() && (e.Priority() > c.Priority() || e.SegmentLength() < c.SegmentLength()) {
			i = p.evict(&p.ways, prev, i)
			continue
		}
		return false
	}
	return true
}

// resolveCaption tests c against the accepted captions. A colliding
// caption is evicted only when c is strictly more important.
func (p *Placer) resolveCaption(c *arena.Label) bool {
	prev := arena.Nil
	for i := p.captions.Head(); i != arena.Nil; {
		e := p.arena.Get(i)

		if !e.Box.Intersects(c.Box) {
			prev, i = i, p.arena.Next(i)
			continue
		}
		if c.Priority() < e.Priority() {
			i = p.evict(&p.captions, prev, i)
			continue
		}
		return false
	}
	return true
}

// duplicates reports whether e and c are the same logical label, either
// the same candidate or pieces of one text split across tiles.
func (p *Placer) duplicates(e, c *arena.Label) bool {
	if e.Candidate == c.Candidate {
		return true
	}
	if !e.Candidate.SameLabel(c.Candidate) {
		return false
	}
	return geom.SegmentDistance(e.P1, e.P2, c.P1, c.P2) <= p.padding
}

// replacesDuplicate reports whether c wins over its duplicate e.
func replacesDuplicate(c, e *arena.Label) bool {
	if c.Gen != e.Gen {
		return c.Gen < e.Gen
	}
	return c.SegmentLength() > e.SegmentLength()
}

// evict removes i from list and returns the label that followed it.
func (p *Placer) evict(list *arena.List, prev, i arena.Index) arena.Index {
	p.record(p.arena.Get(i), OutcomeEvicted)
	p.stats.Evicted++
	next := p.arena.Unlink(list, prev, i)
	p.arena.Release(i)
	return next
}
