package maplabel

import "time"

// Option configures an Engine during creation.
//
// Example:
//
//	eng, err := maplabel.New(tiles,
//	    maplabel.WithInterval(100*time.Millisecond),
//	    maplabel.WithRenderNotifier(window.RequestRedraw),
//	)
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	cfg    Config
	notify func()
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		cfg: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Options after it override
// single fields.
func WithConfig(c Config) Option {
	return func(o *options) {
		o.cfg = c
	}
}

// WithInterval sets the worker cadence.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.cfg.Interval = d
	}
}

// WithPadding sets the label box margin in pixels.
func WithPadding(px float64) Option {
	return func(o *options) {
		o.cfg.Padding = px
	}
}

// WithArenaCapacity sets the initial number of label slots.
func WithArenaCapacity(n int) Option {
	return func(o *options) {
		o.cfg.ArenaCapacity = n
	}
}

// WithDebug enables the debug overlay records.
func WithDebug(on bool) Option {
	return func(o *options) {
		o.cfg.Debug = on
	}
}

// WithRenderNotifier sets a function called after every published
// snapshot, typically to wake the render loop. It runs on the goroutine
// that ran the pass and must not block.
func WithRenderNotifier(fn func()) Option {
	return func(o *options) {
		o.notify = fn
	}
}
