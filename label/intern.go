// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package label

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Text is an interned label string.
//
// Two candidates refer to the same logical label only when their Text
// pointers are equal. Use an Interner to obtain Text values so that equal
// strings decoded from different tiles share one identity.
type Text struct {
	s string
}

// String returns the label string.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return t.s
}

// Interner hands out one *Text per distinct NFC-normalized string.
//
// Thread safety: Interner is safe for concurrent use; tile decoders
// typically share a single instance.
type Interner struct {
	mu    sync.Mutex
	texts map[string]*Text
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{texts: make(map[string]*Text)}
}

// Intern returns the canonical Text for s. Strings that differ only in
// Unicode normalization form map to the same Text.
func (in *Interner) Intern(s string) *Text {
	key := norm.NFC.String(s)

	in.mu.Lock()
	defer in.mu.Unlock()

	if t, ok := in.texts[key]; ok {
		return t
	}
	t := &Text{s: key}
	in.texts[key] = t
	return t
}

// Len returns the number of distinct strings interned.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.texts)
}
