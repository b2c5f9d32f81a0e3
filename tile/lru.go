// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tile

import "github.com/paulmach/orb/maptile"

// lruNode is a node in a doubly-linked LRU list.
// The node stores the tile key for O(1) deletion from the parent map.
type lruNode struct {
	key  maptile.Tile
	prev *lruNode
	next *lruNode
}

// lruList is a doubly-linked list ordering tiles by last use.
// The list is not thread-safe; callers must handle synchronization.
//
// The head is the most recently used, tail is least recently used.
type lruList struct {
	head *lruNode
	tail *lruNode
	len  int
}

// Len returns the number of nodes in the list.
func (l *lruList) Len() int {
	return l.len
}

// PushFront adds a new node at the front (most recently used).
func (l *lruList) PushFront(key maptile.Tile) *lruNode {
	node := &lruNode{key: key}
	l.pushNode(node)
	return node
}

// MoveToFront marks an existing node as most recently used.
func (l *lruList) MoveToFront(node *lruNode) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	l.pushNode(node)
}

// Remove removes a node from the list.
func (l *lruList) Remove(node *lruNode) {
	if node == nil {
		return
	}
	l.unlink(node)
}

// Oldest returns the least recently used node, or nil for an empty list.
func (l *lruList) Oldest() *lruNode {
	return l.tail
}

func (l *lruList) pushNode(node *lruNode) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// unlink removes a node from the list and clears its links.
func (l *lruList) unlink(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	l.len--
}
