package maplabel

import (
	"context"
	"errors"
	"time"

	"github.com/gogpu/maplabel/placement"
)

// Start launches the background worker that serves relabel requests.
// The worker stops when ctx is canceled or Stop is called.
//
// Start returns ErrRunning if the worker is already running and ErrStopped
// after Stop.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.stopped {
		return ErrStopped
	}
	if e.running {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	e.stop = cancel
	e.done = make(chan struct{})
	e.running = true

	Logger().Info("maplabel: worker started", "interval", e.cfg.Interval)
	go e.run(ctx, e.done)
	return nil
}

// Stop stops the worker and waits for it to exit. A pass in flight is
// canceled. Stop is idempotent; the engine cannot be restarted.
func (e *Engine) Stop() {
	e.runMu.Lock()
	if e.stopped {
		e.runMu.Unlock()
		return
	}
	e.stopped = true
	cancel, done := e.stop, e.done
	e.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	Logger().Info("maplabel: worker stopped")
}

// Running reports whether the worker is running.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running && !e.stopped
}

// signal wakes the worker without blocking.
func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// hasWork reports whether a pass should run now.
func (e *Engine) hasWork() bool {
	return e.Pending() && !e.Held()
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer func() {
		e.runMu.Lock()
		e.running = false
		e.runMu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(e.cfg.Interval)
	timer.Stop()

	for {
		for !e.hasWork() {
			select {
			case <-ctx.Done():
				return
			case <-e.wake:
			}
		}

		// Requests arriving during the interval share one pass.
		timer.Reset(e.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if !e.hasWork() {
			continue
		}

		_, err := e.Relabel(ctx)
		switch {
		case err == nil:
		case errors.Is(err, placement.ErrCanceled):
			if ctx.Err() != nil {
				return
			}
		default:
			// Logged by Relabel; the request stays pending and is
			// retried after the next interval.
		}
	}
}
