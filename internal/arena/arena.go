// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package arena stores placed labels in a growable slab addressed by index.
//
// Labels are chained into singly linked lists through an index link, so a
// list can be returned to the free list in constant time. Free slots are
// chained through the same link.
//
// An Arena is not safe for concurrent use. It belongs to whoever runs the
// placement pass.
package arena

import (
	"github.com/golang/geo/r2"

	"github.com/gogpu/maplabel/internal/geom"
	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/tile"
)

// Index addresses a label slot in an Arena.
type Index int32

// Nil is the index of no label.
const Nil Index = -1

// defaultCapacity is the slab size used when New is given zero.
const defaultCapacity = 256

// Label is a placed label.
type Label struct {
	// Candidate is the source candidate.
	Candidate *label.Candidate

	// Tile is the tile the candidate came from.
	Tile tile.Tile

	// Pos is the screen position of the label center.
	Pos r2.Point

	// P1 and P2 are the screen endpoints of the label path.
	P1, P2 r2.Point

	// Box is the oriented box used for overlap tests.
	Box geom.OBB

	// Gen is the pass in which the label was first accepted.
	Gen uint64

	next Index
}

// IsCaption reports whether the label is a point caption.
func (l *Label) IsCaption() bool {
	return l.Candidate.Style.IsCaption()
}

// Priority returns the style priority, lower is more important.
func (l *Label) Priority() int {
	if l.Candidate.Style == nil {
		return 0
	}
	return l.Candidate.Style.Priority
}

// SegmentLength returns the screen length of the label path.
func (l *Label) SegmentLength() float64 {
	return l.P2.Sub(l.P1).Norm()
}

// Arena is a slab of labels with an index free list.
type Arena struct {
	slots []Label
	free  Index
	live  int
}

// New creates an arena with room for capacity labels before it grows.
func New(capacity int) *Arena {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Arena{
		slots: make([]Label, 0, capacity),
		free:  Nil,
	}
}

// Alloc returns a zeroed label slot. The arena grows when no slot is free,
// so pointers obtained from Get must not be held across Alloc.
func (a *Arena) Alloc() Index {
	a.live++
	if a.free != Nil {
		i := a.free
		a.free = a.slots[i].next
		a.slots[i] = Label{next: Nil}
		return i
	}
	a.slots = append(a.slots, Label{next: Nil})
	return Index(len(a.slots) - 1)
}

// Get returns the label stored at i.
func (a *Arena) Get(i Index) *Label {
	return &a.slots[i]
}

// Next returns the index following i in its list.
func (a *Arena) Next(i Index) Index {
	return a.slots[i].next
}

// Release returns a single label to the free list. The label must not be
// linked into a list.
func (a *Arena) Release(i Index) {
	a.slots[i] = Label{next: a.free}
	a.free = i
	a.live--
}

// Live returns the number of allocated labels.
func (a *Arena) Live() int {
	return a.live
}

// Cap returns the number of slots, free or allocated.
func (a *Arena) Cap() int {
	return len(a.slots)
}

// Reset frees every slot, including those referenced by lists the caller
// still holds. Such lists must be discarded.
func (a *Arena) Reset() {
	clear(a.slots)
	a.slots = a.slots[:0]
	a.free = Nil
	a.live = 0
}

// List is a singly linked list of labels in an Arena. The zero value is
// not valid; use NewList.
type List struct {
	head, tail Index
	n          int
}

// NewList returns an empty list.
func NewList() List {
	return List{head: Nil, tail: Nil}
}

// Head returns the first label, or Nil.
func (l *List) Head() Index {
	return l.head
}

// Len returns the number of labels in the list.
func (l *List) Len() int {
	return l.n
}

// Append links i at the end of l.
func (a *Arena) Append(l *List, i Index) {
	a.slots[i].next = Nil
	if l.tail == Nil {
		l.head = i
	} else {
		a.slots[l.tail].next = i
	}
	l.tail = i
	l.n++
}

// Unlink removes i from l and returns the index that followed it. prev
// must be the label before i, or Nil when i is the head.
func (a *Arena) Unlink(l *List, prev, i Index) Index {
	next := a.slots[i].next
	if prev == Nil {
		l.head = next
	} else {
		a.slots[prev].next = next
	}
	if l.tail == i {
		l.tail = prev
	}
	a.slots[i].next = Nil
	l.n--
	return next
}

// Take moves the contents of l into a new list and leaves l empty.
func (l *List) Take() List {
	t := *l
	*l = NewList()
	return t
}

// ReleaseList returns every label of l to the free list in constant time
// and empties l. Released slots keep their contents until reused or until
// Scrub runs.
func (a *Arena) ReleaseList(l *List) {
	if l.head == Nil {
		return
	}
	a.slots[l.tail].next = a.free
	a.free = l.head
	a.live -= l.n
	*l = NewList()
}

// Scrub clears the candidate and tile references held by free slots so
// that released tiles can be collected. It walks the free list once.
func (a *Arena) Scrub() {
	for i := a.free; i != Nil; i = a.slots[i].next {
		l := &a.slots[i]
		l.Candidate = nil
		l.Tile = nil
	}
}
