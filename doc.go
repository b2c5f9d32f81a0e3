// Package maplabel places text labels on a tiled map.
//
// # Overview
//
// Vector map tiles carry label candidates: names running along roads and
// rivers (way labels) and point names such as cities (captions). An Engine
// picks the candidates that fit on screen without overlapping and hands the
// result to the renderer as an immutable layer.Snapshot.
//
// # Quick Start
//
//	store := tile.NewStore(512)
//	eng, err := maplabel.New(store, maplabel.WithRenderNotifier(redraw))
//	if err != nil {
//	    return err
//	}
//	if err := eng.Start(ctx); err != nil {
//	    return err
//	}
//	defer eng.Stop()
//
//	// Render loop:
//	eng.SetView(view)
//	if snap, changed := eng.Update(); changed {
//	    upload(snap)
//	}
//
// # Threading
//
// Placement runs on a background worker. The render thread only publishes
// the view, requests passes and swaps in finished snapshots; it never waits
// for a pass. Requests are coalesced: a pass runs at most once per
// Config.Interval, and not at all while the engine is held with Hold.
//
// # Stability
//
// Way labels accepted by earlier passes are carried into the next pass and
// win ties against newer candidates, so labels do not flicker while the
// map is panned. Captions are placed from scratch on every pass.
//
// # Coordinate System
//
// Snapshot coordinates are screen pixels relative to the view center,
// before the view bearing is applied:
//   - X increases right
//   - Y increases down
//
// The label shader applies the bearing.
package maplabel
