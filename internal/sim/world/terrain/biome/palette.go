package biome

import (
	"fmt"
	"strings"

	"tileworld.ai/internal/sim/world/terrain/rng"
)

type PlanetType string

const (
	PlanetNormal PlanetType = "normal"
	PlanetDry    PlanetType = "dry"
	PlanetWater  PlanetType = "water"
)

// AlienMode controls whether procedural hue-based colors replace the fixed
// colors. Thresholds never depend on it.
type AlienMode string

const (
	AlienAuto   AlienMode = "auto"
	AlienAlways AlienMode = "always"
	AlienNever  AlienMode = "never"
)

func ParseAlienMode(s string) (AlienMode, error) {
	switch m := AlienMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", AlienAuto:
		return AlienAuto, nil
	case AlienAlways, AlienNever:
		return m, nil
	default:
		return "", fmt.Errorf("unknown alien mode %q", s)
	}
}

type Options struct {
	Alien AlienMode
}

var fixedColors = [Count]string{
	DeepWater: "#1e3a8a",
	Water:     "#3b82f6",
	Sand:      "#fcd34d",
	Grass:     "#22c55e",
	Forest:    "#15803d",
	Mountain:  "#57534e",
	Snow:      "#f3f4f6",
}

// Generate derives the world palette from seed. Draw order is fixed: alien
// flag, base hue, planet type. The draws are always taken so forcing the alien
// mode does not shift the planet type.
func Generate(seed string, opts Options) *Palette {
	r := rng.New(seed)

	alien := r.Float64() > 0.3
	baseHue := r.Float64() * 360
	planet := r.Float64()

	switch opts.Alien {
	case AlienAlways:
		alien = true
	case AlienNever:
		alien = false
	}

	p := &Palette{Alien: alien, BaseHue: baseHue}
	switch {
	case planet < 0.2:
		p.Planet, p.WaterLevel, p.MoistureBias = PlanetDry, -0.6, -0.3
	case planet > 0.8:
		p.Planet, p.WaterLevel, p.MoistureBias = PlanetWater, 0.3, 0.2
	default:
		p.Planet, p.WaterLevel, p.MoistureBias = PlanetNormal, -0.2, 0
	}

	wl, mb := p.WaterLevel, p.MoistureBias
	thresholds := [Count][2]float64{
		DeepWater: {-1.0, -1.0},
		Water:     {wl, -1.0},
		Sand:      {wl + 0.2, -1.0},
		Grass:     {wl + 0.3, -0.2 + mb},
		Forest:    {wl + 0.3, 0.2 + mb},
		Mountain:  {0.6, -1.0},
		Snow:      {0.8, -1.0},
	}
	for i := 0; i < Count; i++ {
		css := fixedColors[i]
		if alien {
			css = alienColor(i, baseHue)
		}
		p.biomes[i] = newBiome(i, css, thresholds[i][0], thresholds[i][1])
	}
	return p
}

// StaticPalette is the fixed-color table for a normal planet.
func StaticPalette() *Palette {
	p := &Palette{Planet: PlanetNormal, WaterLevel: -0.2}
	thresholds := [Count][2]float64{
		DeepWater: {-1.0, -1.0},
		Water:     {-0.2, -1.0},
		Sand:      {0.0, -1.0},
		Grass:     {0.1, -0.2},
		Forest:    {0.1, 0.2},
		Mountain:  {0.6, -1.0},
		Snow:      {0.8, -1.0},
	}
	for i := 0; i < Count; i++ {
		p.biomes[i] = newBiome(i, fixedColors[i], thresholds[i][0], thresholds[i][1])
	}
	return p
}

func newBiome(i int, css string, minElevation, minMoisture float64) Biome {
	c, err := ParseCSS(css)
	if err != nil {
		panic(fmt.Sprintf("biome %s: %v", names[i], err))
	}
	return Biome{
		Name:         names[i],
		CSS:          css,
		Color:        c,
		MinElevation: minElevation,
		MinMoisture:  minMoisture,
	}
}

func alienColor(i int, baseHue float64) string {
	switch i {
	case DeepWater:
		return hslCSS(baseHue+180, 70, 30)
	case Water:
		return hslCSS(baseHue+180, 70, 50)
	}

	hue, sat, light := baseHue, 60.0, 50.0
	switch i {
	case Sand:
		hue += 40
		sat -= 20
		light += 20
	case Forest:
		hue -= 10
		light -= 15
	case Mountain:
		sat, light = 10, 40
	case Snow:
		sat, light = 0, 90
	}
	return hslCSS(hue, sat, light)
}
