package maplabel

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/gogpu/maplabel/layer"
	"github.com/gogpu/maplabel/placement"
	"github.com/gogpu/maplabel/tile"
	"github.com/gogpu/maplabel/viewport"
)

// Engine places labels for the tiles of a tile.Manager.
//
// The render thread calls SetView, RequestRelabel, Hold, Clear and Update;
// none of them wait for a pass. Passes run on the worker started by Start,
// or synchronously through Relabel. Only whole snapshots cross between the
// two sides.
type Engine struct {
	manager tile.Manager
	cfg     Config
	notify  func()

	// passMu is held by whoever runs a pass and owns the placer.
	passMu      sync.Mutex
	placer      *placement.Placer
	placerEpoch uint64

	viewMu sync.Mutex
	view   viewport.View

	requestSeq atomic.Uint64
	doneSeq    atomic.Uint64
	held       atomic.Bool
	debug      atomic.Bool
	epoch      atomic.Uint64
	wake       chan struct{}

	cancelMu   sync.Mutex
	cancelPass context.CancelFunc

	handoff handoff

	runMu   sync.Mutex
	running bool
	stopped bool
	stop    context.CancelFunc
	done    chan struct{}
}

// New creates an engine that reads tiles from m.
func New(m tile.Manager, opts ...Option) (*Engine, error) {
	if m == nil {
		return nil, ErrNoManager
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		manager: m,
		cfg:     o.cfg,
		notify:  o.notify,
		placer: placement.New(placement.Config{
			Padding:  o.cfg.Padding,
			Capacity: o.cfg.ArenaCapacity,
			Debug:    o.cfg.Debug,
		}),
		wake: make(chan struct{}, 1),
	}
	e.debug.Store(o.cfg.Debug)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetView sets the view used by the next pass and requests a relabel when
// it differs from the current one.
func (e *Engine) SetView(v viewport.View) {
	e.viewMu.Lock()
	changed := !e.view.Equal(v)
	e.view = v
	e.viewMu.Unlock()

	if changed {
		e.RequestRelabel()
	}
}

// View returns the view used by the next pass.
func (e *Engine) View() viewport.View {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	return e.view
}

// RequestRelabel marks the placement stale. The worker serves the request
// after its interval unless the engine is held.
func (e *Engine) RequestRelabel() {
	e.requestSeq.Add(1)
	e.signal()
}

// Hold suspends relabeling while on is true, for example during a gesture.
// Requests made while held are kept and served after release.
func (e *Engine) Hold(on bool) {
	e.held.Store(on)
	if !on {
		e.signal()
	}
}

// Held reports whether relabeling is suspended.
func (e *Engine) Held() bool {
	return e.held.Load()
}

// Pending reports whether a relabel request has not been served yet.
func (e *Engine) Pending() bool {
	return e.requestSeq.Load() > e.doneSeq.Load()
}

// SetDebug toggles the debug overlay records from the next pass on.
func (e *Engine) SetDebug(on bool) {
	e.debug.Store(on)
	e.RequestRelabel()
}

// Clear drops all labels, for example when the tile source changes. A pass
// in flight is canceled and publishes nothing. The next Update returns an
// empty snapshot, and a relabel is requested for the new source.
func (e *Engine) Clear() {
	epoch := e.epoch.Add(1)

	e.cancelMu.Lock()
	if e.cancelPass != nil {
		e.cancelPass()
	}
	e.cancelMu.Unlock()

	e.handoff.reset(epoch)

	// The pass owner resets the placer when it sees the new epoch; do it
	// now if nobody owns it.
	if e.passMu.TryLock() {
		e.syncEpochLocked(epoch)
		e.passMu.Unlock()
	}

	Logger().Info("maplabel: labels cleared", "epoch", epoch)
	e.RequestRelabel()
}

// Update returns the latest snapshot, swapping in a pending one if a pass
// published since the last call. changed reports whether a swap happened.
// The snapshot is nil until the first pass completes.
//
// Update never waits for a pass.
func (e *Engine) Update() (s *layer.Snapshot, changed bool) {
	return e.handoff.swap()
}

// Relabel runs one pass synchronously for the current view. It reports
// whether a snapshot was published. An empty visible tile set is not an
// error: nothing is published and the pending request stays set.
//
// A canceled pass returns placement.ErrCanceled. Any other failure,
// including a panic in the pass, returns a *PassError.
func (e *Engine) Relabel(ctx context.Context) (bool, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	seq := e.requestSeq.Load()
	epoch := e.epoch.Load()
	e.syncEpochLocked(epoch)

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.setPassCancel(cancel)
	defer e.setPassCancel(nil)

	// Clear may have run between reading the epoch and registering cancel.
	if e.epoch.Load() != epoch {
		return false, placement.ErrCanceled
	}

	view := e.View()
	e.placer.SetDebug(e.debug.Load())

	var frame *placement.Frame
	err := safePass(PhaseCollect, func() error {
		tiles, err := e.manager.VisibleTiles(view)
		if err != nil {
			return err
		}
		if len(tiles) == 0 {
			return nil
		}
		// Tiles stay pinned only while candidates are read.
		defer e.manager.ReleaseTiles(tiles)
		return safePass(PhasePlace, func() error {
			var err error
			frame, err = e.placer.Run(passCtx, view, tiles)
			return err
		})
	})

	switch {
	case errors.Is(err, placement.ErrCanceled):
		Logger().Debug("maplabel: pass canceled")
		return false, err
	case err != nil:
		// Only a failure inside Run can leave the arena half built. A
		// collect failure keeps the carried labels and their generations.
		var pe *PassError
		if errors.As(err, &pe) && pe.Phase == PhasePlace {
			e.placer.Reset()
		}
		Logger().Warn("maplabel: pass failed", "err", err)
		return false, err
	case frame == nil:
		Logger().Debug("maplabel: no visible tiles")
		return false, nil
	}

	var snap *layer.Snapshot
	if err := safePass(PhaseBuild, func() error {
		snap = layer.Build(frame, epoch)
		return nil
	}); err != nil {
		Logger().Warn("maplabel: pass failed", "err", err)
		return false, err
	}

	if !e.handoff.publish(snap) {
		return false, placement.ErrCanceled
	}
	e.doneSeq.Store(seq)

	Logger().Debug("maplabel: pass published", "stats", frame.Stats)
	if e.notify != nil {
		e.notify()
	}
	return true, nil
}

// syncEpochLocked resets the placer when the tile source changed since its
// last pass. Caller must hold passMu.
func (e *Engine) syncEpochLocked(epoch uint64) {
	if e.placerEpoch == epoch {
		return
	}
	e.placer.Reset()
	e.placerEpoch = epoch
}

func (e *Engine) setPassCancel(cancel context.CancelFunc) {
	e.cancelMu.Lock()
	e.cancelPass = cancel
	e.cancelMu.Unlock()
}

// safePass runs fn, converting a panic or an error other than cancellation
// into a *PassError for phase.
func safePass(phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PassError{
				Phase: phase,
				Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
		}
	}()

	err = fn()
	var pe *PassError
	if err == nil || errors.Is(err, placement.ErrCanceled) || errors.As(err, &pe) {
		return err
	}
	return &PassError{Phase: phase, Cause: err}
}
