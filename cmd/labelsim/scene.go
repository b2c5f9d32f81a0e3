package main

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/maplabel/label"
	"github.com/gogpu/maplabel/tile"
	"github.com/gogpu/maplabel/viewport"
)

// scene is the YAML description of a map view and its tiles.
type scene struct {
	Center  [2]float64           `yaml:"center"` // lon, lat
	Zoom    float64              `yaml:"zoom"`
	Bearing float64              `yaml:"bearing"` // degrees
	Width   float64              `yaml:"width"`
	Height  float64              `yaml:"height"`
	Styles  map[string]styleSpec `yaml:"styles"`
	Tiles   []tileSpec           `yaml:"tiles"`
}

type styleSpec struct {
	Kind     string  `yaml:"kind"`
	Priority int     `yaml:"priority"`
	Height   float64 `yaml:"height"`
	Stroke   float64 `yaml:"stroke"`
	Fill     string  `yaml:"fill"`
	Outline  string  `yaml:"outline"`
}

type tileSpec struct {
	ID     [3]uint32   `yaml:"id"` // z, x, y
	Labels []labelSpec `yaml:"labels"`
}

type labelSpec struct {
	Text  string       `yaml:"text"`
	Style string       `yaml:"style"`
	Path  [][2]float64 `yaml:"path"`
	At    *[2]float64  `yaml:"at"`
	Width float64      `yaml:"width"`
}

var errNoTiles = errors.New("labelsim: scene has no tiles")

func loadScene(path string) (*scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScene(data)
}

func parseScene(data []byte) (*scene, error) {
	sc := &scene{Width: 800, Height: 600}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("labelsim: parse scene: %w", err)
	}
	if len(sc.Tiles) == 0 {
		return nil, errNoTiles
	}
	if sc.Width <= 0 || sc.Height <= 0 {
		return nil, fmt.Errorf("labelsim: invalid screen size %vx%v", sc.Width, sc.Height)
	}
	return sc, nil
}

// view returns the view the scene is centered on.
func (sc *scene) view() viewport.View {
	ll := orb.Point{sc.Center[0], sc.Center[1]}
	return viewport.View{
		Position: viewport.FromLonLat(ll, sc.Zoom, sc.Bearing*degToRad),
		Width:    sc.Width,
		Height:   sc.Height,
	}
}

const degToRad = math.Pi / 180

// build converts the scene tiles into tile data, interning label texts.
func (sc *scene) build(in *label.Interner) ([]*tile.Data, error) {
	styles := make(map[string]*label.Style, len(sc.Styles))
	for name, spec := range sc.Styles {
		st, err := spec.style()
		if err != nil {
			return nil, fmt.Errorf("labelsim: style %q: %w", name, err)
		}
		styles[name] = st
	}

	out := make([]*tile.Data, 0, len(sc.Tiles))
	for _, ts := range sc.Tiles {
		id := maptile.New(ts.ID[1], ts.ID[2], maptile.Zoom(ts.ID[0]))
		cands := make([]*label.Candidate, 0, len(ts.Labels))
		for _, ls := range ts.Labels {
			st, ok := styles[ls.Style]
			if !ok {
				return nil, fmt.Errorf("labelsim: tile %v: label %q: unknown style %q", id, ls.Text, ls.Style)
			}
			c, err := ls.candidate(in, st)
			if err != nil {
				return nil, fmt.Errorf("labelsim: tile %v: %w", id, err)
			}
			cands = append(cands, c)
		}
		out = append(out, tile.NewData(id, cands))
	}
	return out, nil
}

func (s styleSpec) style() (*label.Style, error) {
	st := &label.Style{
		Priority: s.Priority,
		Height:   s.Height,
		Stroke:   s.Stroke,
	}
	switch strings.ToLower(s.Kind) {
	case "", "way":
		st.Kind = label.KindWay
	case "caption":
		st.Kind = label.KindCaption
	default:
		return nil, fmt.Errorf("unknown kind %q", s.Kind)
	}
	if st.Height <= 0 {
		st.Height = float64(basicfont.Face7x13.Height)
	}

	var err error
	if st.Fill, err = parseColor(s.Fill, colornames.Black); err != nil {
		return nil, err
	}
	if st.Outline, err = parseColor(s.Outline, colornames.White); err != nil {
		return nil, err
	}
	return st, nil
}

func (ls labelSpec) candidate(in *label.Interner, st *label.Style) (*label.Candidate, error) {
	c := &label.Candidate{
		Text:  in.Intern(ls.Text),
		Style: st,
		Width: ls.Width,
	}
	if c.Width <= 0 {
		c.Width = measure(ls.Text, st.Height)
	}

	switch {
	case st.IsCaption():
		if ls.At == nil {
			return nil, fmt.Errorf("caption %q needs an anchor (at)", ls.Text)
		}
		c.P1 = r2.Point{X: ls.At[0], Y: ls.At[1]}
		c.P2 = c.P1
	case len(ls.Path) >= 2:
		c.P1 = r2.Point{X: ls.Path[0][0], Y: ls.Path[0][1]}
		last := ls.Path[len(ls.Path)-1]
		c.P2 = r2.Point{X: last[0], Y: last[1]}
		for i := 1; i < len(ls.Path); i++ {
			a, b := ls.Path[i-1], ls.Path[i]
			c.Length += r2.Point{X: b[0] - a[0], Y: b[1] - a[1]}.Norm()
		}
	default:
		return nil, fmt.Errorf("way label %q needs a path of at least two points", ls.Text)
	}
	return c, nil
}

// measure estimates the pixel width of text at the given line height from
// the metrics of the built-in bitmap face.
func measure(text string, height float64) float64 {
	adv := font.MeasureString(basicfont.Face7x13, text)
	return float64(adv) / 64 * height / float64(basicfont.Face7x13.Height)
}

// parseColor accepts an SVG color name or #rrggbb / #rrggbbaa.
func parseColor(s string, def color.RGBA) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	c := color.RGBA{A: 0xff}
	var n int
	var err error
	switch len(s) {
	case 7:
		n, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		n, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if err != nil || n < 3 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}
