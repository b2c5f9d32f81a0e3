// Command labelsim runs the label placement engine over a YAML scene and
// writes the result as a PNG.
//
// Usage:
//
//	labelsim -scene testdata/scene.yaml -passes 5 -pan 12 -debug -output labels.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/maplabel"
	"github.com/gogpu/maplabel/integration/labelcanvas"
	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/layer"
	"github.com/gogpu/maplabel/tile"
)

func main() {
	var (
		scenePath  = flag.String("scene", "testdata/scene.yaml", "scene file")
		configPath = flag.String("config", "", "engine config file (optional)")
		output     = flag.String("output", "labels.png", "output file")
		passes     = flag.Int("passes", 1, "number of placement passes")
		pan        = flag.Float64("pan", 0, "horizontal pan in pixels between passes")
		debug      = flag.Bool("debug", false, "draw debug outlines")
		verbose    = flag.Bool("v", false, "log per-pass statistics")
	)
	flag.Parse()

	if *verbose {
		maplabel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	snap, err := run(*scenePath, *configPath, *passes, *pan, *debug)
	if err != nil {
		log.Fatal(err)
	}

	img := render(snap)
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	st := snap.Stats
	log.Printf("Labels saved to %s (%d placed: %d ways, %d captions; carried %d, rejected %d, evicted %d, dropped %d)\n",
		*output, snap.Len(), st.Ways, st.Captions, st.Carried, st.Rejected, st.Evicted, st.Dropped)
}

// run loads the scene and runs the requested passes, returning the last
// published snapshot.
func run(scenePath, configPath string, passes int, pan float64, debug bool) (*layer.Snapshot, error) {
	sc, err := loadScene(scenePath)
	if err != nil {
		return nil, err
	}
	tiles, err := sc.build(label.NewInterner())
	if err != nil {
		return nil, err
	}

	cfg := maplabel.DefaultConfig()
	if configPath != "" {
		if cfg, err = maplabel.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	cfg.Debug = cfg.Debug || debug

	store := tile.NewStore(2 * len(tiles))
	defer store.Close()
	for _, d := range tiles {
		store.Put(d)
	}

	eng, err := maplabel.New(store, maplabel.WithConfig(cfg))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	view := sc.view()
	for i := range max(passes, 1) {
		if i > 0 {
			view.Position = view.Pan(pan, 0)
		}
		eng.SetView(view)
		ok, err := eng.Relabel(ctx)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i+1, err)
		}
		if !ok {
			log.Printf("pass %d: no visible tiles", i+1)
		}
	}

	snap, _ := eng.Update()
	if snap == nil {
		return nil, fmt.Errorf("labelsim: no tiles visible from %v", view.LonLat())
	}
	return snap, nil
}

var background = color.RGBA{R: 0xf2, G: 0xef, B: 0xe9, A: 0xff}

// render draws label boxes and debug outlines with the overlay, then the
// label texts with the built-in bitmap face.
func render(s *layer.Snapshot) *image.RGBA {
	w, h := int(s.View.Width), int(s.View.Height)
	bounds := image.Rect(0, 0, w, h)

	labels := image.NewRGBA(bounds)
	labelcanvas.NewOverlay().Draw(labels, s)

	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, image.NewUniform(background), image.Point{}, draw.Src)
	draw.Draw(img, bounds, labels, image.Point{}, draw.Over)

	face := basicfont.Face7x13
	sin, cos := math.Sincos(s.View.Bearing)
	for _, l := range s.Labels {
		text := l.Candidate.Text.String()
		c := l.Box.Center
		x := c.X*cos - c.Y*sin + float64(w)/2
		y := c.X*sin + c.Y*cos + float64(h)/2
		adv := font.MeasureString(face, text)

		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(int(x)-adv.Ceil()/2, int(y)+face.Ascent/2),
		}
		d.DrawString(text)
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
