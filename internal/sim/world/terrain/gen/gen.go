package gen

import (
	"tileworld.ai/internal/sim/world/logic/mathx"
	"tileworld.ai/internal/sim/world/terrain/biome"
	"tileworld.ai/internal/sim/world/terrain/noise"
	"tileworld.ai/internal/sim/world/terrain/rng"
)

const (
	ChunkSize = 32
	ChunkArea = ChunkSize * ChunkSize
)

// Object codes stored in a chunk's object layer.
const (
	ObjNone uint8 = iota
	ObjTree
	ObjRock
)

// Seeds the per-tile coin flips; distinct from the palette and noise streams.
const decorBasis uint32 = 0x9747b28c

func FloorDiv(a, b int) int {
	return mathx.FloorDiv(a, b)
}

func Mod(a, b int) int {
	return mathx.Mod(a, b)
}

// Params holds the sampling constants. DefaultParams reproduces the reference
// world; changing any value produces a different (still deterministic) world.
type Params struct {
	ElevationScale float64
	Elevation      noise.Octaves

	MoistureScale  float64
	MoistureOffset float64
	Moisture       noise.Octaves

	ObjectScale  float64
	ForestTree   float64
	MountainRock float64
	GrassObject  float64
}

func DefaultParams() Params {
	return Params{
		ElevationScale: 0.01,
		Elevation:      noise.Octaves{Count: 4, Lacunarity: 2, Gain: 0.5},
		MoistureScale:  0.02,
		MoistureOffset: 1000,
		Moisture:       noise.Octaves{Count: 2, Lacunarity: 2, Gain: 0.5},
		ObjectScale:    0.5,
		ForestTree:     0.2,
		MountainRock:   0.5,
		GrassObject:    0.7,
	}
}

// Generator maps world tile coordinates to (biome index, object code). It
// holds no mutable state and may be shared across goroutines.
type Generator struct {
	Noise   *noise.Engine
	Palette *biome.Palette
	Params  Params

	decorSeed int64
}

func New(seed string, engine *noise.Engine, palette *biome.Palette, params Params) *Generator {
	return &Generator{
		Noise:     engine,
		Palette:   palette,
		Params:    params,
		decorSeed: rng.NewWithBasis(seed, decorBasis, 16777619).Int64(),
	}
}

func (g *Generator) Elevation(wx, wy int) float64 {
	p := g.Params
	return g.Noise.FBM(float64(wx)*p.ElevationScale, float64(wy)*p.ElevationScale, p.Elevation)
}

func (g *Generator) Moisture(wx, wy int) float64 {
	p := g.Params
	return g.Noise.FBM(float64(wx)*p.MoistureScale+p.MoistureOffset, float64(wy)*p.MoistureScale+p.MoistureOffset, p.Moisture)
}

func (g *Generator) BiomeAt(wx, wy int) uint8 {
	return g.Palette.Index(g.Elevation(wx, wy), g.Moisture(wx, wy))
}

// Tile returns the biome index and object code for one world tile.
func (g *Generator) Tile(wx, wy int) (tile, obj uint8) {
	tile = g.BiomeAt(wx, wy)
	objectNoise := g.Noise.Sample(float64(wx)*g.Params.ObjectScale, float64(wy)*g.Params.ObjectScale)
	return tile, g.Object(tile, objectNoise, wx, wy)
}

// Object applies the placement rule once the tile biome is known.
func (g *Generator) Object(tile uint8, objectNoise float64, wx, wy int) uint8 {
	switch {
	case tile == biome.Forest && objectNoise > g.Params.ForestTree:
		return ObjTree
	case tile == biome.Mountain && objectNoise > g.Params.MountainRock:
		return ObjRock
	case tile == biome.Grass && objectNoise > g.Params.GrassObject:
		if g.CoinFlip(wx, wy) {
			return ObjTree
		}
		return ObjRock
	default:
		return ObjNone
	}
}

// CoinFlip is a per-tile fair coin keyed by the world seed and coordinates.
func (g *Generator) CoinFlip(wx, wy int) bool {
	return mathx.Unit(mathx.Hash2(g.decorSeed, wx, wy)) > 0.5
}

// DebugHue is a stable hue in [0,360) for outlining chunk (cx, cy).
func (g *Generator) DebugHue(cx, cy int) float64 {
	return mathx.Unit(mathx.Hash2(g.decorSeed^0x5f3759df, cx, cy)) * 360
}
