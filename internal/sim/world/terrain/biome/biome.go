// Package biome turns (elevation, moisture) samples into biome indices using a
// per-world palette derived from the seed.
package biome

import "image/color"

// Palette indices. Tiles store these values directly.
const (
	DeepWater = iota
	Water
	Sand
	Grass
	Forest
	Mountain
	Snow

	Count
)

var names = [Count]string{
	DeepWater: "Deep Water",
	Water:     "Water",
	Sand:      "Sand",
	Grass:     "Grass",
	Forest:    "Forest",
	Mountain:  "Mountain",
	Snow:      "Snow",
}

func Name(i int) string {
	if i < 0 || i >= Count {
		return ""
	}
	return names[i]
}

type Biome struct {
	Name string
	// CSS form of Color ("#rrggbb" or "hsl(h, s%, l%)").
	CSS   string
	Color color.RGBA

	MinElevation float64
	MinMoisture  float64
}

// Palette is immutable once built and safe for concurrent reads.
type Palette struct {
	biomes [Count]Biome

	WaterLevel   float64
	MoistureBias float64

	Planet  PlanetType
	Alien   bool
	BaseHue float64
}

func (p *Palette) Len() int { return Count }

// At panics on an out-of-range index; tiles only ever hold valid indices.
func (p *Palette) At(i int) Biome {
	return p.biomes[i]
}

// Biomes returns a copy in index order.
func (p *Palette) Biomes() []Biome {
	out := make([]Biome, Count)
	copy(out, p.biomes[:])
	return out
}

// Colors returns the RGBA color per index, for rasterizers.
func (p *Palette) Colors() []color.RGBA {
	out := make([]color.RGBA, Count)
	for i, b := range p.biomes {
		out[i] = b.Color
	}
	return out
}

// Index classifies a sample. Rules are evaluated in order and the first match
// wins: elevation gates always beat moisture gates, and every comparison is
// strict so a boundary value falls through to the next rule.
func (p *Palette) Index(elevation, moisture float64) uint8 {
	switch {
	case elevation < p.WaterLevel-0.25:
		return DeepWater
	case elevation < p.WaterLevel:
		return Water
	case elevation > 0.8:
		return Snow
	case elevation > 0.6:
		return Mountain
	}

	m := moisture + p.MoistureBias
	switch {
	case m < -0.2:
		return Sand
	case m > 0.3:
		return Forest
	default:
		return Grass
	}
}

func (p *Palette) Classify(elevation, moisture float64) Biome {
	return p.biomes[p.Index(elevation, moisture)]
}
