package maplabel

import (
	"sync"

	"github.com/gogpu/maplabel/layer"
)

// handoff passes snapshots from the pass owner to the render thread.
// It holds at most one pending snapshot; a newer one replaces it.
type handoff struct {
	mu      sync.Mutex
	epoch   uint64
	pending *layer.Snapshot
	current *layer.Snapshot
}

// publish stores s as the pending snapshot. Snapshots built for an older
// epoch are discarded and publish reports false.
func (h *handoff) publish(s *layer.Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.Epoch != h.epoch {
		return false
	}
	h.pending = s
	return true
}

// swap makes the pending snapshot current, if any, and returns the
// current snapshot and whether it changed.
func (h *handoff) swap() (*layer.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending == nil {
		return h.current, false
	}
	h.current, h.pending = h.pending, nil
	return h.current, true
}

// reset starts a new epoch. The pending snapshot is replaced by an empty
// one so the render thread drops labels of the old tile source on its
// next swap.
func (h *handoff) reset(epoch uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.epoch = epoch
	h.pending = &layer.Snapshot{Epoch: epoch}
}
