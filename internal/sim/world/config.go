package world

import (
	"tileworld.ai/internal/sim/world/terrain/biome"
	genpkg "tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/noise"
)

type WorldConfig struct {
	ID   string
	Seed string

	Noise   noise.Backend
	Alien   biome.AlienMode
	Terrain genpkg.Params
}

// DefaultConfig is the reference world for seed.
func DefaultConfig(id, seed string) WorldConfig {
	return WorldConfig{
		ID:      id,
		Seed:    seed,
		Noise:   noise.BackendSimplex,
		Alien:   biome.AlienAuto,
		Terrain: genpkg.DefaultParams(),
	}
}
