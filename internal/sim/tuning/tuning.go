package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/biome"
	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/noise"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Seed         string `yaml:"seed"`
	NoiseBackend string `yaml:"noise_backend"`
	AlienMode    string `yaml:"alien_mode"`

	Terrain Terrain `yaml:"terrain"`
	Render  Render  `yaml:"render"`

	TickRateHz      int `yaml:"tick_rate_hz"`
	PrefetchWorkers int `yaml:"prefetch_workers"`
}

type Octaves struct {
	Count      int     `yaml:"count"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
}

type Terrain struct {
	ElevationScale float64 `yaml:"elevation_scale"`
	Elevation      Octaves `yaml:"elevation"`

	MoistureScale  float64 `yaml:"moisture_scale"`
	MoistureOffset float64 `yaml:"moisture_offset"`
	Moisture       Octaves `yaml:"moisture"`

	ObjectScale  float64 `yaml:"object_scale"`
	ForestTree   float64 `yaml:"forest_tree"`
	MountainRock float64 `yaml:"mountain_rock"`
	GrassObject  float64 `yaml:"grass_object"`
}

type Render struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
	Debug  bool    `yaml:"debug"`
}

func Defaults() Tuning {
	p := genpkg.DefaultParams()
	return Tuning{
		ProtocolVersion: "1.0",
		Seed:            "tileworld",
		NoiseBackend:    string(noise.BackendSimplex),
		AlienMode:       string(biome.AlienAuto),
		Terrain:         terrainFromParams(p),
		Render: Render{
			Width:  800,
			Height: 600,
			Scale:  8,
		},
		TickRateHz:      60,
		PrefetchWorkers: 4,
	}
}

// Load overlays path onto Defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if _, err := noise.ParseBackend(t.NoiseBackend); err != nil {
		return err
	}
	if _, err := biome.ParseAlienMode(t.AlienMode); err != nil {
		return err
	}
	if t.Terrain.Elevation.Count <= 0 || t.Terrain.Moisture.Count <= 0 {
		return fmt.Errorf("octave counts must be > 0")
	}
	if t.Terrain.ElevationScale <= 0 || t.Terrain.MoistureScale <= 0 || t.Terrain.ObjectScale <= 0 {
		return fmt.Errorf("sampling scales must be > 0")
	}
	if t.Render.Width <= 0 || t.Render.Height <= 0 {
		return fmt.Errorf("render size must be > 0 (got %dx%d)", t.Render.Width, t.Render.Height)
	}
	if t.Render.Scale <= 0 {
		return fmt.Errorf("render scale must be > 0")
	}
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.PrefetchWorkers <= 0 {
		return fmt.Errorf("prefetch_workers must be > 0")
	}
	return nil
}

func (t Tuning) Params() genpkg.Params {
	tr := t.Terrain
	return genpkg.Params{
		ElevationScale: tr.ElevationScale,
		Elevation:      noise.Octaves(tr.Elevation),
		MoistureScale:  tr.MoistureScale,
		MoistureOffset: tr.MoistureOffset,
		Moisture:       noise.Octaves(tr.Moisture),
		ObjectScale:    tr.ObjectScale,
		ForestTree:     tr.ForestTree,
		MountainRock:   tr.MountainRock,
		GrassObject:    tr.GrassObject,
	}
}

// WorldConfig builds the config for world id. An empty seed falls back to the
// tuning seed.
func (t Tuning) WorldConfig(id, seed string) (world.WorldConfig, error) {
	if seed == "" {
		seed = t.Seed
	}
	backend, err := noise.ParseBackend(t.NoiseBackend)
	if err != nil {
		return world.WorldConfig{}, err
	}
	alien, err := biome.ParseAlienMode(t.AlienMode)
	if err != nil {
		return world.WorldConfig{}, err
	}
	cfg := world.DefaultConfig(id, seed)
	cfg.Noise = backend
	cfg.Alien = alien
	cfg.Terrain = t.Params()
	return cfg, nil
}

func terrainFromParams(p genpkg.Params) Terrain {
	return Terrain{
		ElevationScale: p.ElevationScale,
		Elevation:      Octaves(p.Elevation),
		MoistureScale:  p.MoistureScale,
		MoistureOffset: p.MoistureOffset,
		Moisture:       Octaves(p.Moisture),
		ObjectScale:    p.ObjectScale,
		ForestTree:     p.ForestTree,
		MountainRock:   p.MountainRock,
		GrassObject:    p.GrassObject,
	}
}
