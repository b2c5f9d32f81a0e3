package maplabel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb/maptile"

	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/layer"
	"github.com/gogpu/maplabel/placement"
	"github.com/gogpu/maplabel/tile"
	"github.com/gogpu/maplabel/viewport"
)

var homeTile = maptile.New(8800, 5373, 14)

// viewOn returns an 800x600 view centered on the middle of t.
func viewOn(t maptile.Tile) viewport.View {
	n := float64(uint32(1) << uint32(t.Z))
	return viewport.View{
		Position: viewport.Position{
			X:     (float64(t.X) + 0.5) / n,
			Y:     (float64(t.Y) + 0.5) / n,
			Zoom:  int(t.Z),
			Scale: 1,
		},
		Width:  800,
		Height: 600,
	}
}

func mainStreetTile() *tile.Data {
	in := label.NewInterner()
	st := &label.Style{Kind: label.KindWay, Priority: 5, Height: 12}
	p1, p2 := r2.Point{X: 28, Y: 128}, r2.Point{X: 228, Y: 128}
	return tile.NewData(homeTile, []*label.Candidate{{
		Text:   in.Intern("Main Street"),
		Style:  st,
		P1:     p1,
		P2:     p2,
		Width:  80,
		Length: p2.Sub(p1).Norm(),
	}})
}

// newTestEngine returns an engine over a store holding ts, with the view
// centered on homeTile.
func newTestEngine(t *testing.T, ts ...*tile.Data) (*Engine, *tile.Store) {
	t.Helper()
	store := tile.NewStore(16)
	for _, d := range ts {
		store.Put(d)
	}
	e, err := New(store, WithInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	e.SetView(viewOn(homeTile))
	return e, store
}

// funcManager adapts a function to tile.Manager.
type funcManager func(viewport.View) ([]tile.Tile, error)

func (f funcManager) VisibleTiles(v viewport.View) ([]tile.Tile, error) { return f(v) }
func (f funcManager) ReleaseTiles([]tile.Tile)                          {}

func TestNew(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoManager) {
		t.Errorf("New(nil) = %v, want ErrNoManager", err)
	}
	if _, err := New(tile.NewStore(1), WithInterval(0)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New with zero interval = %v, want ErrInvalidConfig", err)
	}

	e, err := New(tile.NewStore(1), WithPadding(2), WithDebug(true))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if c := e.Config(); c.Padding != 2 || !c.Debug || c.Interval != DefaultInterval {
		t.Errorf("Config() = %+v", c)
	}
	if s, changed := e.Update(); s != nil || changed {
		t.Error("Update() before any pass returned a snapshot")
	}
}

func TestSetViewRequestsRelabel(t *testing.T) {
	e, err := New(tile.NewStore(1))
	if err != nil {
		t.Fatal(err)
	}
	if e.Pending() {
		t.Fatal("new engine has a pending request")
	}
	v := viewOn(homeTile)
	e.SetView(v)
	if !e.Pending() {
		t.Fatal("SetView did not request a relabel")
	}
	if !e.View().Equal(v) {
		t.Errorf("View() = %+v, want %+v", e.View(), v)
	}
}

func TestRelabelPublishes(t *testing.T) {
	e, store := newTestEngine(t, mainStreetTile())

	ok, err := e.Relabel(context.Background())
	if err != nil || !ok {
		t.Fatalf("Relabel() = %v, %v", ok, err)
	}
	if e.Pending() {
		t.Error("request still pending after a published pass")
	}
	if n := store.Pins(homeTile); n != 0 {
		t.Errorf("tile pins after pass = %d, want 0", n)
	}

	s, changed := e.Update()
	if !changed || s.Len() != 1 {
		t.Fatalf("Update() = %d labels, changed %v", s.Len(), changed)
	}
	if got := s.Labels[0].Candidate.Text.String(); got != "Main Street" {
		t.Errorf("label = %q", got)
	}

	again, changed := e.Update()
	if changed || again != s {
		t.Error("second Update() swapped without a new pass")
	}
}

func TestRelabelNoTiles(t *testing.T) {
	e, _ := newTestEngine(t)

	ok, err := e.Relabel(context.Background())
	if err != nil || ok {
		t.Fatalf("Relabel() = %v, %v; want false, nil", ok, err)
	}
	if !e.Pending() {
		t.Error("request served without tiles")
	}
	if s, _ := e.Update(); s != nil {
		t.Error("snapshot published without tiles")
	}
}

func TestRelabelErrors(t *testing.T) {
	errSource := errors.New("source offline")

	tests := []struct {
		name      string
		manager   funcManager
		wantPhase string
		wantCause error
	}{
		{
			name: "manager error",
			manager: func(viewport.View) ([]tile.Tile, error) {
				return nil, errSource
			},
			wantPhase: PhaseCollect,
			wantCause: errSource,
		},
		{
			name: "manager panic",
			manager: func(viewport.View) ([]tile.Tile, error) {
				panic("boom")
			},
			wantPhase: PhaseCollect,
		},
		{
			name: "candidate panic",
			manager: func(viewport.View) ([]tile.Tile, error) {
				return []tile.Tile{panicTile{}}, nil
			},
			wantPhase: PhasePlace,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.manager)
			if err != nil {
				t.Fatal(err)
			}
			e.SetView(viewOn(homeTile))

			ok, err := e.Relabel(context.Background())
			if ok {
				t.Error("failed pass published")
			}
			var pe *PassError
			if !errors.As(err, &pe) {
				t.Fatalf("Relabel() = %v, want *PassError", err)
			}
			if pe.Phase != tt.wantPhase {
				t.Errorf("Phase = %q, want %q", pe.Phase, tt.wantPhase)
			}
			if tt.wantCause != nil && !errors.Is(err, tt.wantCause) {
				t.Errorf("error %v does not wrap %v", err, tt.wantCause)
			}
			if !e.Pending() {
				t.Error("failed pass cleared the request")
			}
		})
	}
}

type panicTile struct{}

func (panicTile) ID() maptile.Tile               { return homeTile }
func (panicTile) State() tile.State              { return tile.StateReady }
func (panicTile) Candidates() []*label.Candidate { panic("corrupt tile") }

func TestPreviousSnapshotSurvivesFailure(t *testing.T) {
	var fail atomic.Bool
	good := mainStreetTile()
	e, err := New(funcManager(func(viewport.View) ([]tile.Tile, error) {
		if fail.Load() {
			return nil, errors.New("decode failed")
		}
		return []tile.Tile{good}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	e.SetView(viewOn(homeTile))

	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, _ := e.Update()

	fail.Store(true)
	e.RequestRelabel()
	if _, err := e.Relabel(context.Background()); err == nil {
		t.Fatal("Relabel() succeeded, want error")
	}
	s, changed := e.Update()
	if changed || s != first {
		t.Error("failed pass replaced the on-screen snapshot")
	}
}

func TestHold(t *testing.T) {
	e, _ := newTestEngine(t, mainStreetTile())

	e.Hold(true)
	if !e.Held() || e.hasWork() {
		t.Fatal("held engine reports work")
	}
	e.RequestRelabel()
	if !e.Pending() {
		t.Fatal("request dropped while held")
	}
	e.Hold(false)
	if !e.hasWork() {
		t.Error("request not served after release")
	}
}

func TestClear(t *testing.T) {
	e, store := newTestEngine(t, mainStreetTile())
	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}
	before, _ := e.Update()

	e.Clear()
	if !e.Pending() {
		t.Error("Clear did not request a relabel")
	}
	if e.placer.Live() != 0 {
		t.Errorf("placer holds %d labels after Clear", e.placer.Live())
	}
	s, changed := e.Update()
	if !changed || s.Len() != 0 || s.Epoch != before.Epoch+1 {
		t.Fatalf("Update() after Clear = %d labels epoch %d, changed %v", s.Len(), s.Epoch, changed)
	}

	store.Put(tile.NewData(homeTile, nil))
	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, changed = e.Update()
	if !changed || s.Len() != 0 || s.Epoch != before.Epoch+1 {
		t.Errorf("pass after Clear = %d labels epoch %d", s.Len(), s.Epoch)
	}
}

func TestCollectFailureKeepsGeneration(t *testing.T) {
	good := mainStreetTile()
	var calls atomic.Int32
	e, err := New(funcManager(func(viewport.View) ([]tile.Tile, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("source offline")
		}
		return []tile.Tile{good}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	e.SetView(viewOn(homeTile))

	if ok, err := e.Relabel(context.Background()); !ok || err != nil {
		t.Fatalf("first Relabel() = %v, %v", ok, err)
	}

	e.RequestRelabel()
	_, err = e.Relabel(context.Background())
	var pe *PassError
	if !errors.As(err, &pe) || pe.Phase != PhaseCollect {
		t.Fatalf("second Relabel() = %v, want collect PassError", err)
	}
	if e.placer.Live() != 1 {
		t.Errorf("placer holds %d labels after collect failure, want 1", e.placer.Live())
	}

	if ok, err := e.Relabel(context.Background()); !ok || err != nil {
		t.Fatalf("third Relabel() = %v, %v", ok, err)
	}
	s, _ := e.Update()
	if s.Len() != 1 {
		t.Fatalf("snapshot has %d labels, want 1", s.Len())
	}
	if g := s.Labels[0].Gen; g != 1 {
		t.Errorf("Gen after transient failure = %d, want 1", g)
	}
}

func TestPlaceFailureResetsPlacer(t *testing.T) {
	var fail atomic.Bool
	good := mainStreetTile()
	e, err := New(funcManager(func(viewport.View) ([]tile.Tile, error) {
		if fail.Load() {
			return []tile.Tile{panicTile{}}, nil
		}
		return []tile.Tile{good}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	e.SetView(viewOn(homeTile))
	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}

	fail.Store(true)
	e.RequestRelabel()
	_, err = e.Relabel(context.Background())
	var pe *PassError
	if !errors.As(err, &pe) || pe.Phase != PhasePlace {
		t.Fatalf("Relabel() = %v, want place PassError", err)
	}
	if e.placer.Live() != 0 {
		t.Errorf("placer holds %d labels after place failure, want 0", e.placer.Live())
	}
}

func TestClearDuringPass(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var gate atomic.Bool
	gate.Store(true)
	good := mainStreetTile()

	e, err := New(funcManager(func(viewport.View) ([]tile.Tile, error) {
		if gate.CompareAndSwap(true, false) {
			close(entered)
			<-release
		}
		return []tile.Tile{good}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	e.SetView(viewOn(homeTile))

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := e.Relabel(context.Background())
		done <- result{ok, err}
	}()

	<-entered
	e.Clear()
	close(release)

	var r result
	select {
	case r = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not return after Clear")
	}
	if r.ok || !errors.Is(r.err, placement.ErrCanceled) {
		t.Fatalf("Relabel() during Clear = %v, %v; want ErrCanceled", r.ok, r.err)
	}
	if e.placer.Live() != 0 {
		t.Errorf("placer holds %d labels after canceled pass", e.placer.Live())
	}
	s, changed := e.Update()
	if !changed || s.Len() != 0 || s.Epoch != 1 {
		t.Fatalf("Update() after Clear = %v, changed %v", s, changed)
	}
	if !e.Pending() {
		t.Error("Clear did not leave a relabel pending")
	}

	ok, err := e.Relabel(context.Background())
	if !ok || err != nil {
		t.Fatalf("Relabel() after Clear = %v, %v", ok, err)
	}
	s, changed = e.Update()
	if !changed || s.Len() != 1 || s.Epoch != 1 {
		t.Errorf("pass after Clear = %d labels epoch %d, changed %v", s.Len(), s.Epoch, changed)
	}
}

func TestStaleSnapshotDiscarded(t *testing.T) {
	var h handoff
	h.reset(2)
	if h.publish(&layer.Snapshot{Epoch: 1}) {
		t.Error("publish accepted a snapshot of an old epoch")
	}
	if !h.publish(&layer.Snapshot{Epoch: 2}) {
		t.Error("publish rejected a current snapshot")
	}
	s, changed := h.swap()
	if !changed || s.Epoch != 2 {
		t.Errorf("swap() = %+v, %v", s, changed)
	}
}

func TestRenderNotifier(t *testing.T) {
	var calls atomic.Int32
	store := tile.NewStore(4)
	store.Put(mainStreetTile())
	e, err := New(store, WithRenderNotifier(func() { calls.Add(1) }))
	if err != nil {
		t.Fatal(err)
	}
	e.SetView(viewOn(homeTile))

	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("notifier called %d times, want 1", calls.Load())
	}
}

func TestDebugToggle(t *testing.T) {
	e, _ := newTestEngine(t, mainStreetTile())

	e.SetDebug(true)
	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, _ := e.Update()
	if len(s.Debug) == 0 {
		t.Error("no debug lines with debug enabled")
	}

	e.SetDebug(false)
	if _, err := e.Relabel(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, _ = e.Update()
	if len(s.Debug) != 0 {
		t.Error("debug lines with debug disabled")
	}
}

func TestRelabelCanceled(t *testing.T) {
	e, _ := newTestEngine(t, mainStreetTile())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := e.Relabel(ctx)
	if ok || !errors.Is(err, placement.ErrCanceled) {
		t.Fatalf("Relabel(canceled) = %v, %v; want ErrCanceled", ok, err)
	}
	if !e.Pending() {
		t.Error("canceled pass cleared the request")
	}
}

func TestStartStop(t *testing.T) {
	e, _ := newTestEngine(t)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if !e.Running() {
		t.Error("Running() = false after Start")
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() = %v, want ErrRunning", err)
	}

	e.Stop()
	e.Stop()
	if e.Running() {
		t.Error("Running() = true after Stop")
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop = %v, want ErrStopped", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Stop()
	if err := e.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop = %v, want ErrStopped", err)
	}
}

func TestWorkerServesRequests(t *testing.T) {
	published := make(chan struct{}, 16)
	store := tile.NewStore(4)
	store.Put(mainStreetTile())
	e, err := New(store,
		WithInterval(5*time.Millisecond),
		WithRenderNotifier(func() { published <- struct{}{} }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	e.SetView(viewOn(homeTile))
	waitPublished(t, published)

	s, changed := e.Update()
	if !changed || s.Len() != 1 {
		t.Fatalf("Update() = %d labels, changed %v", s.Len(), changed)
	}

	// Held requests wait for release.
	e.Hold(true)
	e.RequestRelabel()
	select {
	case <-published:
		t.Fatal("pass ran while held")
	case <-time.After(50 * time.Millisecond):
	}
	e.Hold(false)
	waitPublished(t, published)
}

func TestWorkerRetriesUntilTilesArrive(t *testing.T) {
	published := make(chan struct{}, 16)
	store := tile.NewStore(4)
	e, err := New(store,
		WithInterval(2*time.Millisecond),
		WithRenderNotifier(func() { published <- struct{}{} }),
	)
	if err != nil {
		t.Fatal(err)
	}
	e.SetView(viewOn(homeTile))
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	time.Sleep(20 * time.Millisecond)
	if !e.Pending() {
		t.Fatal("request served without tiles")
	}
	store.Put(mainStreetTile())
	waitPublished(t, published)
}

func TestWorkerStopsWithContext(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for e.Running() {
		if time.Now().After(deadline) {
			t.Fatal("worker still running after context cancel")
		}
		time.Sleep(time.Millisecond)
	}
	e.Stop()
}

func TestConcurrentUpdate(t *testing.T) {
	e, _ := newTestEngine(t, mainStreetTile())
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		v := viewOn(homeTile)
		for i := range 200 {
			v.Position = v.Position.Pan(float64(i%3), 0)
			e.SetView(v)
			if i%50 == 0 {
				e.Clear()
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			if s, _ := e.Update(); s != nil {
				_ = s.Len()
			}
		}
	}()
	wg.Wait()
}

func waitPublished(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}
}
