package gen

import (
	"testing"

	"tileworld.ai/internal/sim/world/terrain/biome"
	"tileworld.ai/internal/sim/world/terrain/noise"
)

type flat float64

func (f flat) Noise2D(x, y float64) float64 { return float64(f) }

func newFlat(v float64) *Generator {
	return New("flat", noise.FromSource(flat(v)), biome.StaticPalette(), DefaultParams())
}

func TestTile_FlatFields(t *testing.T) {
	cases := []struct {
		v         float64
		tile, obj uint8
	}{
		{0.5, biome.Forest, ObjTree},
		{0.65, biome.Mountain, ObjRock},
		{0.55, biome.Forest, ObjTree},
		{0.9, biome.Snow, ObjNone},
		{-0.3, biome.Water, ObjNone},
		{-0.9, biome.DeepWater, ObjNone},
		{0.1, biome.Grass, ObjNone},
		{0.0, biome.Grass, ObjNone},
	}
	for _, c := range cases {
		tile, obj := newFlat(c.v).Tile(3, -7)
		if tile != c.tile || obj != c.obj {
			t.Fatalf("flat %v: got tile=%s obj=%d want %s/%d", c.v, biome.Name(int(tile)), obj, biome.Name(int(c.tile)), c.obj)
		}
	}
}

func TestObject_Rules(t *testing.T) {
	g := newFlat(0)
	if got := g.Object(biome.Forest, 0.2, 0, 0); got != ObjNone {
		t.Fatalf("forest at threshold: got %d", got)
	}
	if got := g.Object(biome.Forest, 0.21, 0, 0); got != ObjTree {
		t.Fatalf("forest above threshold: got %d", got)
	}
	if got := g.Object(biome.Mountain, 0.5, 0, 0); got != ObjNone {
		t.Fatalf("mountain at threshold: got %d", got)
	}
	if got := g.Object(biome.Sand, 0.99, 0, 0); got != ObjNone {
		t.Fatalf("sand never gets objects: got %d", got)
	}
	if got := g.Object(biome.Grass, 0.7, 0, 0); got != ObjNone {
		t.Fatalf("grass at threshold: got %d", got)
	}

	trees, rocks := 0, 0
	for i := 0; i < 1000; i++ {
		switch g.Object(biome.Grass, 0.9, i, -i*3) {
		case ObjTree:
			trees++
		case ObjRock:
			rocks++
		default:
			t.Fatalf("grass above threshold must place an object")
		}
	}
	if trees < 400 || rocks < 400 {
		t.Fatalf("coin flip unbalanced: trees=%d rocks=%d", trees, rocks)
	}
}

func TestCoinFlip_SeededAndStable(t *testing.T) {
	a := New("s1", noise.FromSource(flat(0)), biome.StaticPalette(), DefaultParams())
	b := New("s1", noise.FromSource(flat(0)), biome.StaticPalette(), DefaultParams())
	c := New("s2", noise.FromSource(flat(0)), biome.StaticPalette(), DefaultParams())
	diff := 0
	for i := 0; i < 256; i++ {
		if a.CoinFlip(i, i+1) != b.CoinFlip(i, i+1) {
			t.Fatalf("coin flip differs for same seed at %d", i)
		}
		if a.CoinFlip(i, i+1) != c.CoinFlip(i, i+1) {
			diff++
		}
	}
	if diff == 0 {
		t.Fatalf("expected different seeds to flip differently somewhere")
	}
	if h := a.DebugHue(-4, 9); h < 0 || h >= 360 || h != b.DebugHue(-4, 9) {
		t.Fatalf("debug hue unstable or out of range: %v", h)
	}
}

func TestElevationAndMoistureUseParams(t *testing.T) {
	e, err := noise.New("params", noise.BackendSimplex)
	if err != nil {
		t.Fatalf("noise: %v", err)
	}
	g := New("params", e, biome.StaticPalette(), DefaultParams())
	if got, want := g.Elevation(40, -12), e.SampleFBM(0.4, -0.12, 4, 2, 0.5); got != want {
		t.Fatalf("elevation: got %v want %v", got, want)
	}
	if got, want := g.Moisture(40, -12), e.SampleFBM(40*0.02+1000, -12*0.02+1000, 2, 2, 0.5); got != want {
		t.Fatalf("moisture: got %v want %v", got, want)
	}
}
