// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tile

import (
	"sync"

	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/maplabel/viewport"
)

// Store is a thread-safe LRU tile cache with a soft limit that implements
// Manager.
//
// Tiles returned by VisibleTiles are pinned and are never evicted while
// pinned. Evicted tiles are moved to StateEvicted so that a label engine
// still holding a reference drops their candidates.
//
// Store must not be copied after creation (has mutex).
type Store struct {
	mu        sync.Mutex
	entries   map[maptile.Tile]*storeEntry
	lru       lruList
	softLimit int
	closed    bool

	hits      uint64
	misses    uint64
	evictions uint64
}

// storeEntry holds a cached tile, its LRU node and pin count.
type storeEntry struct {
	data *Data
	node *lruNode
	pins int
}

// NewStore creates a store with the given soft limit.
// A softLimit of 0 means unlimited.
func NewStore(softLimit int) *Store {
	return &Store{
		entries:   make(map[maptile.Tile]*storeEntry),
		softLimit: softLimit,
	}
}

// Put inserts or replaces a tile. A replaced tile is marked evicted unless
// it is the same value. If the store exceeds its soft limit, the least
// recently used unpinned tiles are evicted.
func (s *Store) Put(d *Data) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.ID()
	if e, ok := s.entries[key]; ok {
		if e.data != d {
			e.data.SetState(StateEvicted)
			e.data = d
		}
		s.lru.MoveToFront(e.node)
		return
	}

	s.entries[key] = &storeEntry{
		data: d,
		node: s.lru.PushFront(key),
	}
	s.evictLocked()
}

// Get returns the tile stored under id.
func (s *Store) Get(id maptile.Tile) (*Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	s.lru.MoveToFront(e.node)
	return e.data, true
}

// Delete evicts a tile. Pinned tiles cannot be deleted; Delete reports
// whether the tile was removed.
func (s *Store) Delete(id maptile.Tile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.pins > 0 {
		return false
	}
	s.removeLocked(e)
	return true
}

// VisibleTiles returns the ready tiles covering the view, pinning each.
func (s *Store) VisibleTiles(v viewport.View) ([]Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	var tiles []Tile
	for _, id := range v.Tiles() {
		e, ok := s.entries[id]
		if !ok {
			s.misses++
			continue
		}
		s.hits++
		if e.data.State() != StateReady {
			continue
		}
		e.pins++
		s.lru.MoveToFront(e.node)
		tiles = append(tiles, e.data)
	}
	return tiles, nil
}

// ReleaseTiles unpins tiles previously returned by VisibleTiles and evicts
// anything that was kept over the soft limit only because it was pinned.
func (s *Store) ReleaseTiles(tiles []Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tiles {
		e, ok := s.entries[t.ID()]
		if !ok || e.pins == 0 {
			continue
		}
		e.pins--
	}
	s.evictLocked()
}

// Pins returns the pin count of a tile.
func (s *Store) Pins(id maptile.Tile) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		return e.pins
	}
	return 0
}

// Close stops the store from serving tiles and evicts everything that is
// not pinned.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, e := range s.entries {
		if e.pins == 0 {
			s.removeLocked(e)
		}
	}
}

// Len returns the number of cached tiles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Len:       len(s.entries),
		Capacity:  s.softLimit,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
	for _, e := range s.entries {
		if e.pins > 0 {
			st.Pinned++
		}
	}
	if total := s.hits + s.misses; total > 0 {
		st.HitRate = float64(s.hits) / float64(total)
	}
	return st
}

// evictLocked removes least recently used unpinned tiles until the store
// is within its soft limit. Caller must hold s.mu.
func (s *Store) evictLocked() {
	if s.softLimit <= 0 {
		return
	}
	node := s.lru.Oldest()
	for len(s.entries) > s.softLimit && node != nil {
		prev := node.prev
		if e := s.entries[node.key]; e.pins == 0 {
			s.removeLocked(e)
		}
		node = prev
	}
}

// removeLocked drops an entry and marks its tile evicted.
// Caller must hold s.mu.
func (s *Store) removeLocked(e *storeEntry) {
	s.lru.Remove(e.node)
	delete(s.entries, e.data.ID())
	e.data.SetState(StateEvicted)
	s.evictions++
}

// Stats contains tile store statistics.
type Stats struct {
	// Len is the current number of tiles.
	Len int
	// Capacity is the soft limit (0 = unlimited).
	Capacity int
	// Pinned is the number of tiles currently pinned by a placement pass.
	Pinned int
	// Hits is the number of lookups that found a tile.
	Hits uint64
	// Misses is the number of lookups that found nothing.
	Misses uint64
	// HitRate is the hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of tiles dropped from the store.
	Evictions uint64
}

var _ Manager = (*Store)(nil)
